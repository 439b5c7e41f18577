package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/entity"
)

type sqliteResult struct {
	conn *sql.DB
}

// NewSQLiteResultRepository expects the schema created by storage.Storage.Init.
func NewSQLiteResultRepository(conn *sql.DB) ResultRepository {
	return &sqliteResult{
		conn: conn,
	}
}

func (that *sqliteResult) Save(ctx context.Context, result *entity.MatchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("can't marshal result: %w", err)
	}

	query := `INSERT OR REPLACE INTO results (game_id, winner_id, reason, finished_at, payload) VALUES (?, ?, ?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query,
		result.GameID,
		result.WinnerID,
		result.Reason,
		result.FinishedAt.UnixMilli(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

func (that *sqliteResult) GetByID(ctx context.Context, gameID string) (*entity.MatchResult, error) {
	query := `SELECT payload FROM results WHERE game_id = ?`

	var payload string

	err := that.conn.QueryRowContext(ctx, query, gameID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find result: %w", err)
	}

	var result entity.MatchResult
	if err = json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("can't unmarshal result: %w", err)
	}

	return &result, nil
}

func (that *sqliteResult) ListRecent(ctx context.Context, limit int) ([]*entity.MatchResult, error) {
	results := []*entity.MatchResult{}
	if limit <= 0 {
		return results, nil
	}

	query := `SELECT payload FROM results ORDER BY finished_at DESC, game_id LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		var result entity.MatchResult
		if err = json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("can't unmarshal result: %w", err)
		}
		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}

	return results, nil
}
