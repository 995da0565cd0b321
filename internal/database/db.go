package database

import (
	"database/sql"
	"errors"

	"github.com/quantglass/analyst/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection from a connection string
func New(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS screens (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			chat_id BIGINT NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (symbol, interval)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_history (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			direction TEXT NOT NULL,
			strength DOUBLE PRECISION NOT NULL,
			as_of TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS signal_history_symbol_as_of_idx
		ON signal_history (symbol, as_of DESC)
	`)
	return err
}

// CreateScreen saves a dashboard screen, reactivating it if the
// symbol/interval pair already exists.
func (db *DB) CreateScreen(symbol, interval string, chatID int64) (*models.Screen, error) {
	var screen models.Screen
	err := db.QueryRow(`
		INSERT INTO screens (symbol, interval, chat_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, interval)
		DO UPDATE SET chat_id = EXCLUDED.chat_id, enabled = TRUE
		RETURNING id, symbol, interval, chat_id, enabled, created_at
	`, symbol, interval, chatID).Scan(
		&screen.ID, &screen.Symbol, &screen.Interval, &screen.ChatID, &screen.Enabled, &screen.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &screen, nil
}

// GetScreen retrieves a screen by id; nil if it does not exist.
func (db *DB) GetScreen(id int64) (*models.Screen, error) {
	var screen models.Screen
	err := db.QueryRow(`
		SELECT id, symbol, interval, chat_id, enabled, created_at
		FROM screens
		WHERE id = $1
	`, id).Scan(
		&screen.ID, &screen.Symbol, &screen.Interval, &screen.ChatID, &screen.Enabled, &screen.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &screen, nil
}

// ListEnabledScreens returns every screen the poller should analyze.
func (db *DB) ListEnabledScreens() ([]models.Screen, error) {
	rows, err := db.Query(`
		SELECT id, symbol, interval, chat_id, enabled, created_at
		FROM screens
		WHERE enabled = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var screens []models.Screen
	for rows.Next() {
		var screen models.Screen
		if err := rows.Scan(
			&screen.ID, &screen.Symbol, &screen.Interval, &screen.ChatID, &screen.Enabled, &screen.CreatedAt,
		); err != nil {
			return nil, err
		}
		screens = append(screens, screen)
	}
	return screens, rows.Err()
}

// SetScreenEnabled toggles a screen in or out of the polling cycle.
func (db *DB) SetScreenEnabled(id int64, enabled bool) error {
	_, err := db.Exec(`
		UPDATE screens
		SET enabled = $1
		WHERE id = $2
	`, enabled, id)
	return err
}

// SaveSignals appends the signals of one analysis pass to the history.
func (db *DB) SaveSignals(symbol string, signals []models.Signal) error {
	for _, s := range signals {
		_, err := db.Exec(`
			INSERT INTO signal_history (symbol, signal_type, direction, strength, as_of)
			VALUES ($1, $2, $3, $4, $5)
		`, symbol, s.Type, string(s.Direction), s.Strength, s.Timestamp)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentSignals returns the newest stored signals for a symbol.
func (db *DB) RecentSignals(symbol string, limit int) ([]models.Signal, error) {
	rows, err := db.Query(`
		SELECT signal_type, direction, strength, as_of
		FROM signal_history
		WHERE symbol = $1
		ORDER BY as_of DESC, id DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var s models.Signal
		var direction string
		if err := rows.Scan(&s.Type, &direction, &s.Strength, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Direction = models.SignalDirection(direction)
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
