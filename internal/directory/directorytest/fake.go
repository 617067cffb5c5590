// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directorytest provides an in-memory directory.Gateway for tests.
package directorytest

import (
	"context"
	"sync"

	"github.com/jeranaias/classdesk/internal/directory"
)

// Call records one gateway invocation.
type Call struct {
	Op    string // "parent", "professor", "student", "all", "update"
	ID    string
	Patch directory.Patch
}

// Fake is an in-memory Gateway. Records are keyed by identifier only, so a
// role-specific fetch happily returns a record of another role, like a loose
// backend would.
//
// Hooks, when set, replace the default behavior of an operation. Gate, when
// set, blocks every call until a value is received from it.
type Fake struct {
	mu      sync.Mutex
	records []directory.UserRecord
	calls   []Call

	FetchHook  func(op, id string) (directory.UserRecord, error)
	AllHook    func() ([]directory.UserRecord, error)
	UpdateHook func(id string, patch directory.Patch) (directory.UserRecord, error)
	Gate       chan struct{}
}

// NewFake returns a fake holding a copy of records.
func NewFake(records ...directory.UserRecord) *Fake {
	return &Fake{records: directory.CloneRecords(records)}
}

// Calls returns the calls made so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many calls were made for op.
func (f *Fake) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Records returns the current contents.
func (f *Fake) Records() []directory.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return directory.CloneRecords(f.records)
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *Fake) wait(ctx context.Context) error {
	if f.Gate == nil {
		return nil
	}
	select {
	case <-f.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fake) fetch(ctx context.Context, op, id string) (directory.UserRecord, error) {
	f.record(Call{Op: op, ID: id})
	if err := f.wait(ctx); err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "fetch_" + op, Err: err}
	}
	if f.FetchHook != nil {
		return f.FetchHook(op, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Identifier == id {
			return r, nil
		}
	}
	return directory.UserRecord{}, directory.ErrNotFound
}

// FetchParent implements directory.Gateway.
func (f *Fake) FetchParent(ctx context.Context, id string) (directory.UserRecord, error) {
	return f.fetch(ctx, "parent", id)
}

// FetchProfessor implements directory.Gateway.
func (f *Fake) FetchProfessor(ctx context.Context, id string) (directory.UserRecord, error) {
	return f.fetch(ctx, "professor", id)
}

// FetchStudent implements directory.Gateway.
func (f *Fake) FetchStudent(ctx context.Context, id string) (directory.UserRecord, error) {
	return f.fetch(ctx, "student", id)
}

// FetchAll implements directory.Gateway.
func (f *Fake) FetchAll(ctx context.Context) ([]directory.UserRecord, error) {
	f.record(Call{Op: "all"})
	if err := f.wait(ctx); err != nil {
		return nil, &directory.TransportError{Op: "fetch_all", Err: err}
	}
	if f.AllHook != nil {
		return f.AllHook()
	}
	return f.Records(), nil
}

// Update implements directory.Gateway.
func (f *Fake) Update(ctx context.Context, id string, patch directory.Patch) (directory.UserRecord, error) {
	f.record(Call{Op: "update", ID: id, Patch: patch})
	if err := f.wait(ctx); err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Err: err}
	}
	if f.UpdateHook != nil {
		return f.UpdateHook(id, patch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.Identifier == id {
			f.records[i] = patch.Apply(r)
			return f.records[i], nil
		}
	}
	return directory.UserRecord{}, directory.ErrNotFound
}

// Set replaces or inserts a record, as if changed out of band.
func (f *Fake) Set(rec directory.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.Identifier == rec.Identifier {
			f.records[i] = rec
			return
		}
	}
	f.records = append(f.records, rec)
}

var _ directory.Gateway = (*Fake)(nil)
