// Package scores persists per-player best scores for the arcade games.
// This is a boundary service: the session broker never depends on it.
package scores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrPlayerTaken means another submission claimed the (player, game) row
// between our lookup and insert.
var ErrPlayerTaken = errors.New("player already has a score for this game")

// Score is one player's best result for one game. The unique index keeps
// a single row per (player, game) pair.
type Score struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Game      string    `gorm:"index:idx_player_game,unique;not null" json:"game"`
	Player    string    `gorm:"index:idx_player_game,unique;not null" json:"player"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubmitResult int

const (
	// Created: first score for this (player, game).
	Created SubmitResult = iota
	// Improved: the new score beat the stored best.
	Improved
	// NotImproved: the stored best stands.
	NotImproved
)

// Direction reports whether lower scores rank higher for a game (timed
// games) instead of the usual higher-is-better.
type Direction func(game string) bool

type Store interface {
	Submit(ctx context.Context, game, player string, value int) (SubmitResult, error)
	// Top returns up to limit entries for game, best first, excluding
	// non-positive scores.
	Top(ctx context.Context, game string, limit int) ([]Score, error)
}

// OpenPostgres connects to the scores database.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

type gormStore struct {
	db            *gorm.DB
	lowerIsBetter Direction
}

func NewGormStore(db *gorm.DB, lowerIsBetter Direction) (Store, error) {
	if err := db.AutoMigrate(&Score{}); err != nil {
		return nil, fmt.Errorf("migrate scores: %w", err)
	}
	return &gormStore{db: db, lowerIsBetter: lowerIsBetter}, nil
}

func (s *gormStore) Submit(ctx context.Context, game, player string, value int) (SubmitResult, error) {
	var existing Score
	err := s.db.WithContext(ctx).
		Where("game = ? AND player = ?", game, player).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec := Score{Game: game, Player: player, Score: value}
		if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
			// A concurrent first submission can win the race to the unique
			// (player, game) index.
			if isUniqueViolation(err) {
				return 0, ErrPlayerTaken
			}
			return 0, fmt.Errorf("create score: %w", err)
		}
		return Created, nil
	}
	if err != nil {
		return 0, fmt.Errorf("look up score: %w", err)
	}

	if !beats(value, existing.Score, s.lowerIsBetter(game)) {
		return NotImproved, nil
	}
	if err := s.db.WithContext(ctx).Model(&existing).Update("score", value).Error; err != nil {
		return 0, fmt.Errorf("update score: %w", err)
	}
	return Improved, nil
}

func (s *gormStore) Top(ctx context.Context, game string, limit int) ([]Score, error) {
	order := "score DESC"
	if s.lowerIsBetter(game) {
		order = "score ASC"
	}
	var out []Score
	err := s.db.WithContext(ctx).
		Where("game = ? AND score > 0", game).
		Order(order).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return out, nil
}

// isUniqueViolation reports whether err is Postgres error 23505
// (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func beats(candidate, current int, lowerBetter bool) bool {
	if lowerBetter {
		return candidate < current
	}
	return candidate > current
}
