// Package dispatch sends one question at a time to the remote service and
// collapses every failure mode into a single user-presentable failure.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"HRCareChat/internal/api"
)

var (
	// ErrBusy rejects a dispatch while another one is still in flight
	ErrBusy = errors.New("a question is already in flight")

	// ErrEmptyQuestion rejects a blank question
	ErrEmptyQuestion = errors.New("question is empty")
)

// Failure is the single failure type surfaced to the session. Transport,
// protocol and decode failures all end up here; the distinction only matters
// in the logs.
type Failure struct {
	Message string
	Err     error
}

// Error implements the error interface
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap exposes the underlying cause
func (f *Failure) Unwrap() error {
	return f.Err
}

// Querier is the one service call the dispatcher needs
type Querier interface {
	Query(ctx context.Context, request api.QueryRequest) (*api.QueryResponse, error)
}

// Dispatcher enforces the at-most-one-in-flight policy. It performs no
// retries and no queueing; a rejected call is simply not sent.
type Dispatcher struct {
	client   Querier
	logger   *slog.Logger
	inFlight atomic.Bool
}

// New creates a dispatcher over the given service client
func New(client Querier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, logger: logger}
}

// Busy reports whether a dispatch is currently outstanding
func (d *Dispatcher) Busy() bool {
	return d.inFlight.Load()
}

// Dispatch sends question (with optional filters) to the remote service.
// Exactly one outbound request is made per accepted call.
func (d *Dispatcher) Dispatch(ctx context.Context, question string, filters *api.QueryFilters) (*api.QueryResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer d.inFlight.Store(false)

	resp, err := d.client.Query(ctx, api.QueryRequest{
		Question: question,
		Filters:  filters,
	})
	if err != nil {
		d.logger.Warn("query dispatch failed", "error", err)
		return nil, &Failure{Message: err.Error(), Err: err}
	}

	d.logger.Info("query dispatched",
		"query_id", resp.QueryID,
		"context_count", len(resp.ContextUsed),
		"no_context_found", resp.NoContextFound)
	return resp, nil
}
