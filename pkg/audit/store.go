// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit records the execution history of pipeline stages.
//
// Events describe what ran and how it ended. Generated artifacts are never
// stored, so nothing in an audit store can feed a later run.
package audit

import (
	"context"
	"sync"
	"time"
)

// Event is one finished pipeline stage.
type Event struct {
	RunID      string
	TaskID     string
	TaskName   string
	AgentRole  string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store persists stage audit events.
type Store interface {
	Record(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// Filter limits audit event queries. Zero fields match everything.
type Filter struct {
	RunID    string
	TaskName string
	Status   string
	Limit    int
}

func (f Filter) match(ev Event) bool {
	if f.RunID != "" && ev.RunID != f.RunID {
		return false
	}
	if f.TaskName != "" && ev.TaskName != f.TaskName {
		return false
	}
	if f.Status != "" && ev.Status != f.Status {
		return false
	}
	return true
}

// MemoryStore keeps audit events in memory.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStore returns an in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends an audit event.
func (s *MemoryStore) Record(_ context.Context, event Event) error {
	event.StartedAt = normalizeTime(event.StartedAt)
	event.FinishedAt = normalizeTime(event.FinishedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns filtered audit events in insertion order.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if !filter.match(ev) {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Discard is a Store that drops every event.
type Discard struct{}

// Record implements Store.
func (Discard) Record(context.Context, Event) error { return nil }

// List implements Store.
func (Discard) List(context.Context, Filter) ([]Event, error) { return nil, nil }

func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
