package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gramtrack/internal/database"
)

// SQLBackend stores settings documents in the user_settings table, one row
// per (user, key). This is the backend for signed-in users.
type SQLBackend struct {
	db *database.DB
}

// NewSQLBackend creates a SQL settings backend.
func NewSQLBackend(db *database.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Get(ctx context.Context, userID, key string) (json.RawMessage, error) {
	var value []byte
	query := "SELECT value FROM user_settings WHERE user_id = ? AND name = ?"
	err := b.db.QueryRow(query, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (b *SQLBackend) GetAll(ctx context.Context, userID string) (map[string]json.RawMessage, error) {
	query := "SELECT name, value FROM user_settings WHERE user_id = ?"
	rows, err := b.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	all := make(map[string]json.RawMessage)
	for rows.Next() {
		var name string
		var value []byte
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		all[name] = json.RawMessage(value)
	}
	return all, rows.Err()
}

func (b *SQLBackend) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	_, err := b.db.Exec(b.db.Dialect.UpsertUserSetting(), userID, key, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
