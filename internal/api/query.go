package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// QueryMode selects how the service interprets the submitted text.
type QueryMode string

const (
	// ModeNatural sends a plain-language question for translation.
	ModeNatural QueryMode = "natural"
	// ModeSQL sends raw SQL for direct execution.
	ModeSQL QueryMode = "sql"
)

// QueryRequest is one submission to the execution endpoint. It is
// constructed fresh per submission and never mutated after sending.
type QueryRequest struct {
	Question  string    `json:"question"`
	Mode      QueryMode `json:"query_mode"`
	DatasetID *int64    `json:"database_id,omitempty"`
}

// ExecuteQuery submits a query and returns the raw response payload.
// The payload shape varies across service versions (`results` vs
// `data`, optional `sql_query`/`execution_time`/`error`), so
// normalization into a tabular result is left to the caller.
func (c *Client) ExecuteQuery(ctx context.Context, req QueryRequest) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/api/query/execute", req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// HistoryEntry is one persisted record of a past submission. Read-only
// from the client's perspective.
type HistoryEntry struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	SQLQuery      string   `json:"sql_query"`
	ErrorMessage  string   `json:"error_message"`
	CreatedAt     string   `json:"created_at"`
	ExecutionTime *float64 `json:"execution_time"`
}

// History fetches up to limit most-recent entries, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	path := fmt.Sprintf("/api/query/history?limit=%d", limit)
	if err := c.get(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
