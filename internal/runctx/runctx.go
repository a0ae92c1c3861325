// Package runctx carries run and record identity through a context so that
// log lines and errors can be correlated after a batch.
package runctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type key int

const (
	runKey key = iota
	recordKey
)

type RunContext struct {
	RunID     string
	StartTime time.Time
}

type RecordContext struct {
	Index     int
	Name      string
	URL       string
	StartTime time.Time
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

func WithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		runID = NewRunID()
	}
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     runID,
		StartTime: time.Now(),
	})
}

func GetRun(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

func WithRecord(ctx context.Context, index int, name, url string) context.Context {
	return context.WithValue(ctx, recordKey, &RecordContext{
		Index:     index,
		Name:      name,
		URL:       url,
		StartTime: time.Now(),
	})
}

// GetRecord returns the record attached to ctx, or nil.
func GetRecord(ctx context.Context) *RecordContext {
	rc, _ := ctx.Value(recordKey).(*RecordContext)
	return rc
}

// RecordError wraps an error with the run and record it happened in
type RecordError struct {
	RunID  string
	Record int
	Err    error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	return fmt.Sprintf("[%s #%d] %v", e.RunID, e.Record, e.Err)
}

// Unwrap returns the underlying error
func (e *RecordError) Unwrap() error {
	return e.Err
}

// NewRecordError creates a new RecordError from context
func NewRecordError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	idx := -1
	if rec := GetRecord(ctx); rec != nil {
		idx = rec.Index
	}
	return &RecordError{
		RunID:  GetRun(ctx).RunID,
		Record: idx,
		Err:    err,
	}
}
