// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package audit provides an append-only audit trail for security-relevant
// events. Denials are written synchronously so they cannot be lost to a
// crash; routine entries go through a buffered channel and are dropped,
// with a metric, when the consumer falls behind.
package audit

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/oops"
)

// Actions recorded in the audit trail.
const (
	ActionRegister      = "user.register"
	ActionLogin         = "user.login"
	ActionLoginFailed   = "user.login_failed"
	ActionLogout        = "user.logout"
	ActionRateLimited   = "request.rate_limited"
	ActionAccessDenied  = "request.access_denied"
	ActionPatientCreate = "patient.create"
	ActionPatientUpdate = "patient.update"
	ActionPatientDelete = "patient.delete"
)

// Outcome classifies an entry for routing. Denials and failures are written
// synchronously; successes go through the async channel.
type Outcome string

// Entry outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
)

// Entry is a single audit record.
type Entry struct {
	ID        ulid.ULID `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry builds an Entry with a fresh ULID and the current time.
func NewEntry(actor, action, resource string, outcome Outcome, detail string) Entry {
	now := time.Now()
	return Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		Detail:    detail,
		Timestamp: now,
	}
}

// Writer is the interface for writing audit entries to a backend.
type Writer interface {
	WriteSync(ctx context.Context, entry Entry) error
	WriteAsync(entry Entry) error
	Close() error
}

var (
	channelFullCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vetclinic_audit_channel_full_total",
		Help: "Total number of audit entries dropped because the async channel was full",
	})

	failuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vetclinic_audit_failures_total",
		Help: "Total number of audit logging failures",
	}, []string{"reason"})
)

const asyncBufferSize = 1000

// Logger routes audit entries to a Writer, sync for denials and failures,
// async for the rest.
type Logger struct {
	writer    Writer
	asyncChan chan Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a Logger and starts its async consumer.
func NewLogger(writer Writer) *Logger {
	logger := &Logger{
		writer:    writer,
		asyncChan: make(chan Entry, asyncBufferSize),
		stopChan:  make(chan struct{}),
	}

	logger.wg.Add(1)
	go logger.asyncConsumer()

	return logger
}

// Log records an entry. Denied and failed outcomes are written synchronously;
// the error from the backend is reported to the caller. Successful outcomes
// are queued and never block the request path.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	if entry.Outcome == OutcomeDenied || entry.Outcome == OutcomeFailure {
		if err := l.writer.WriteSync(ctx, entry); err != nil {
			slog.Error("audit write failed",
				"error", err,
				"actor", entry.Actor,
				"action", entry.Action,
				"resource", entry.Resource,
			)
			failuresCounter.WithLabelValues("sync_write_failed").Inc()
			return oops.Code("AUDIT_WRITE_FAILED").Wrap(err)
		}
		return nil
	}

	select {
	case l.asyncChan <- entry:
	default:
		channelFullCounter.Inc()
	}
	return nil
}

func (l *Logger) asyncConsumer() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.asyncChan:
			l.writeAsync(entry)
		case <-l.stopChan:
			l.drainAsync()
			return
		}
	}
}

// drainAsync processes all remaining entries in the channel.
func (l *Logger) drainAsync() {
	for {
		select {
		case entry := <-l.asyncChan:
			l.writeAsync(entry)
		default:
			return
		}
	}
}

func (l *Logger) writeAsync(entry Entry) {
	if err := l.writer.WriteAsync(entry); err != nil {
		slog.Error("async audit write failed",
			"error", err,
			"actor", entry.Actor,
			"action", entry.Action,
		)
		failuresCounter.WithLabelValues("async_write_failed").Inc()
	}
}

// Close drains the async channel and shuts down the writer.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()

	if err := l.writer.Close(); err != nil {
		return oops.Code("AUDIT_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
