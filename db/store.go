package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"gorm.io/gorm"
)

// ErrGameNotFound is returned when no record is tracked for a directory.
var ErrGameNotFound = errors.New("game is not tracked")

// Store persists game records and install history.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NormalizeDir returns the absolute, cleaned form used as a record key.
func NormalizeDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("empty directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// LoadRecord returns the record for installDir or ErrGameNotFound.
func (s *Store) LoadRecord(installDir string) (*Game, error) {
	key, err := NormalizeDir(installDir)
	if err != nil {
		return nil, err
	}
	var game Game
	result := s.db.Where("install_dir = ?", key).First(&game)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, key)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query game %s: %w", key, result.Error)
	}
	if game.InstalledFiles == nil {
		game.InstalledFiles = []string{}
	}
	return &game, nil
}

// SaveRecord inserts a new record or updates every mutable field of an
// existing one. InstallDir is never rewritten.
func (s *Store) SaveRecord(game *Game) error {
	if game.InstalledFiles == nil {
		game.InstalledFiles = []string{}
	}
	if game.ID == 0 {
		key, err := NormalizeDir(game.InstallDir)
		if err != nil {
			return err
		}
		game.InstallDir = key
		if err := s.db.Create(game).Error; err != nil {
			return fmt.Errorf("failed to create game %s: %w", key, err)
		}
		return nil
	}
	err := s.db.Model(game).Select("*").Omit("InstallDir", "CreatedAt").Updates(game).Error
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", game.InstallDir, err)
	}
	return nil
}

// Register tracks installDir, returning the existing record when it is
// already known.
func (s *Store) Register(installDir, title string) (*Game, bool, error) {
	existing, err := s.LoadRecord(installDir)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrGameNotFound) {
		return nil, false, err
	}

	game := &Game{InstallDir: installDir, GameTitle: title}
	if err := s.SaveRecord(game); err != nil {
		return nil, false, err
	}
	return game, true, nil
}

// ListRecords returns every tracked game ordered by directory.
func (s *Store) ListRecords() ([]Game, error) {
	var games []Game
	if err := s.db.Order("install_dir").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Forget stops tracking installDir. Files on disk are untouched.
func (s *Store) Forget(installDir string) error {
	game, err := s.LoadRecord(installDir)
	if err != nil {
		return err
	}
	return s.db.Unscoped().Delete(game).Error
}

// RecordRun appends a workflow outcome to the history.
func (s *Store) RecordRun(run *InstallRun) error {
	if err := s.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to save install history: %w", err)
	}
	return nil
}

// Runs returns the newest runs for installDir, at most limit when limit > 0.
func (s *Store) Runs(installDir string, limit int) ([]InstallRun, error) {
	key, err := NormalizeDir(installDir)
	if err != nil {
		return nil, err
	}
	query := s.db.Where("install_dir = ?", key).Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []InstallRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to query install history: %w", err)
	}
	return runs, nil
}
