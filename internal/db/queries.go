package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertCompletion persists a history entry. The entry's ID is set from
// the inserted row.
func (db *DB) InsertCompletion(entry *models.HistoryEntry) error {
	query := `
		INSERT INTO completions (
			timestamp, endpoint, model, prompt, response, status, error,
			status_code, prompt_tokens, completion_tokens, cost, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timeLayout),
		entry.Request.Profile.EndpointURL,
		entry.Request.Profile.Model,
		entry.Request.Prompt,
		nullString(entry.Result.Text),
		entry.Result.Status.String(),
		nullString(entry.Result.ErrorMessage),
		entry.Result.StatusCode,
		entry.Result.PromptTokens,
		entry.Result.CompletionTokens,
		entry.Result.CostEstimate,
		entry.Result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	return nil
}

// RecentCompletions returns the last limit completions in insertion
// order, oldest first, so the history log can be rebuilt directly.
func (db *DB) RecentCompletions(limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, timestamp, endpoint, model, prompt, response, status, error,
			   status_code, prompt_tokens, completion_tokens, cost, duration_ms
		FROM (
			SELECT * FROM completions ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent completions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var ts, status string
		var response, errMsg sql.NullString
		var durationMs int64

		err := rows.Scan(
			&e.ID,
			&ts,
			&e.Request.Profile.EndpointURL,
			&e.Request.Profile.Model,
			&e.Request.Prompt,
			&response,
			&status,
			&errMsg,
			&e.Result.StatusCode,
			&e.Result.PromptTokens,
			&e.Result.CompletionTokens,
			&e.Result.CostEstimate,
			&durationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}

		e.Timestamp, _ = time.Parse(timeLayout, ts)
		e.Request.CreatedAt = e.Timestamp
		e.Result.Text = response.String
		e.Result.ErrorMessage = errMsg.String
		e.Result.Status = models.ParseResultStatus(status)
		e.Result.Model = e.Request.Profile.Model
		e.Result.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TotalStats returns aggregated statistics over all persisted
// completions.
func (db *DB) TotalStats() (*models.TotalStats, error) {
	query := `
		SELECT
			COUNT(*) as total_calls,
			COALESCE(SUM(prompt_tokens), 0) as total_prompt,
			COALESCE(SUM(completion_tokens), 0) as total_completion,
			COALESCE(SUM(cost), 0) as total_cost,
			SUM(CASE WHEN status != 'success' THEN 1 ELSE 0 END) as error_count,
			COUNT(DISTINCT model) as unique_models
		FROM completions
	`

	var stats models.TotalStats
	var errorCount sql.NullInt64
	err := db.QueryRowContext(context.Background(), query).Scan(
		&stats.TotalCalls,
		&stats.TotalPromptTokens,
		&stats.TotalCompletionTokens,
		&stats.TotalCost,
		&errorCount,
		&stats.UniqueModels,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query total stats: %w", err)
	}
	stats.ErrorCount = int(errorCount.Int64)

	return &stats, nil
}

// TokenSeries returns total tokens per completion for the last limit
// requests, oldest first. Used by the usage chart.
func (db *DB) TokenSeries(limit int) ([]float64, error) {
	query := `
		SELECT prompt_tokens + completion_tokens
		FROM (
			SELECT * FROM completions WHERE status = 'success' ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query token series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var series []float64
	for rows.Next() {
		var total float64
		if err := rows.Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to scan token series: %w", err)
		}
		series = append(series, total)
	}

	return series, rows.Err()
}

// ClearCompletions deletes all persisted completions. Used only on
// explicit user action.
func (db *DB) ClearCompletions() error {
	_, err := db.ExecContext(context.Background(), "DELETE FROM completions")
	if err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}
	return nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
