package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/leapstack-labs/sqlpilot/internal/api"
)

// State is the query orchestrator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateRendered
)

// fallbackMessage is shown when the service fails without a detail.
const fallbackMessage = "Query execution failed"

// Orchestrator drives one query submission at a time:
// Idle -> Submitting -> Rendered, returning to Submitting on the next
// submission. The previous result is cleared the instant a new
// submission begins, not when the new result arrives.
type Orchestrator struct {
	client *api.Client
	logger *slog.Logger

	state  State
	result *Result

	// refreshSeq increments once per settled submission; the history
	// feed observes it to know when to refetch. A transport-level
	// failure still counts, since the attempt is recorded server-side.
	refreshSeq atomic.Uint64
}

// New creates an orchestrator bound to the transport gateway.
func New(client *api.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{client: client, logger: logger}
}

// State returns the current lifecycle position.
func (o *Orchestrator) State() State { return o.state }

// Result returns the rendered result, or nil while Idle/Submitting.
func (o *Orchestrator) Result() *Result { return o.result }

// RefreshSeq returns the submission counter the history feed observes.
func (o *Orchestrator) RefreshSeq() uint64 { return o.refreshSeq.Load() }

// Submit sends text to the execution endpoint and returns the
// normalized result. Empty or whitespace-only text is a silent no-op
// returning nil. The returned result is also retained on the
// orchestrator for view state.
func (o *Orchestrator) Submit(ctx context.Context, text string, mode api.QueryMode, datasetID *int64) *Result {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	o.state = StateSubmitting
	o.result = nil

	req := api.QueryRequest{Question: text, Mode: mode, DatasetID: datasetID}
	raw, err := o.client.ExecuteQuery(ctx, req)

	var res *Result
	if err != nil {
		message := fallbackMessage
		var te *api.TransportError
		if errors.As(err, &te) {
			message = te.Detail(fallbackMessage)
		}
		o.logger.Debug("query failed", "error", err)
		res = &Result{Err: message}
	} else {
		res = Normalize(raw)
	}

	o.result = res
	o.state = StateRendered
	o.refreshSeq.Add(1)
	return res
}
