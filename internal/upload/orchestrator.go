// Package upload validates dataset files locally and ships accepted ones
// to the server.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlpilot/internal/api"
)

// State tracks the upload pipeline. A file moves Idle -> Validating and
// from there to Rejected (local checks failed, no network traffic) or
// Uploading, which settles as Succeeded or Failed.
type State int

const (
	Idle State = iota
	Validating
	Rejected
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// MaxFileSize is the largest dataset accepted for upload.
const MaxFileSize = 10 << 20

const (
	typeMessage     = "Please upload a CSV, JSON, or Excel file"
	sizeMessage     = "File size must be less than 10MB"
	fallbackMessage = "Upload failed"
)

// contentTypes maps file extensions onto the MIME types the server accepts.
var contentTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".xls":  "application/vnd.ms-excel",
}

// Outcome is the settled result of a HandleFile call.
type Outcome struct {
	State   State
	Message string
}

// Orchestrator runs the validate-then-upload pipeline for dataset files.
// The zero candidate is cleared only after a successful upload so a
// rejected or failed file stays staged for another attempt.
type Orchestrator struct {
	client    *api.Client
	logger    *slog.Logger
	onSuccess func()

	state     State
	message   string
	candidate string
}

// New returns an upload orchestrator. onSuccess, when non-nil, runs after
// every successful upload; callers use it to refresh their dataset list.
func New(client *api.Client, onSuccess func(), logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{client: client, onSuccess: onSuccess, logger: logger, state: Idle}
}

func (o *Orchestrator) State() State      { return o.state }
func (o *Orchestrator) Message() string   { return o.message }
func (o *Orchestrator) Candidate() string { return o.candidate }

// HandleFile stages path, validates it locally and, when the checks pass,
// uploads it. Validation failures settle as Rejected without touching the
// network.
func (o *Orchestrator) HandleFile(ctx context.Context, path string) Outcome {
	o.candidate = path
	o.state = Validating
	o.message = ""

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return o.settle(Rejected, typeMessage)
	}

	info, err := os.Stat(path)
	if err != nil {
		return o.settle(Rejected, statMessage(err))
	}
	if info.Size() > MaxFileSize {
		return o.settle(Rejected, sizeMessage)
	}

	f, err := os.Open(path)
	if err != nil {
		return o.settle(Rejected, statMessage(err))
	}
	defer f.Close()

	o.state = Uploading
	o.logger.Debug("uploading dataset", "path", path, "content_type", contentType, "size", info.Size())

	name := filepath.Base(path)
	if _, err := o.client.UploadDataset(ctx, name, f); err != nil {
		var terr *api.TransportError
		if errors.As(err, &terr) {
			return o.settle(Failed, terr.Detail(fallbackMessage))
		}
		o.logger.Warn("dataset upload failed", "error", err)
		return o.settle(Failed, fallbackMessage)
	}

	o.candidate = ""
	out := o.settle(Succeeded, fmt.Sprintf("Dataset %q uploaded successfully!", name))
	if o.onSuccess != nil {
		o.onSuccess()
	}
	return out
}

func (o *Orchestrator) settle(s State, msg string) Outcome {
	o.state = s
	o.message = msg
	return Outcome{State: s, Message: msg}
}

func statMessage(err error) string {
	if os.IsNotExist(err) {
		return "File not found"
	}
	return "File could not be read"
}
