// Package transport provides gtag.Transport implementations: an in-memory
// recorder, a zap log sink, a local client id resolver, a fan-out tee and,
// under js/wasm, a bridge to the page's gtag function.
package transport

import (
	"sync"

	"ganeo/internal/gtag"
)

// Record is one observed gtag invocation.
type Record struct {
	Command gtag.Command
	Args    []any
}

// Recorder stores every call in order. Client id lookups are held until
// Resolve is called, unless the recorder was built with ResolveWith.
type Recorder struct {
	mu          sync.Mutex
	calls       []Record
	lookups     []gtag.LookupFunc
	clientID    string
	autoResolve bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// ResolveWith makes the recorder answer lookups synchronously, from inside
// the get call, with clientID.
func ResolveWith(clientID string) RecorderOption {
	return func(r *Recorder) {
		r.clientID = clientID
		r.autoResolve = true
	}
}

// NewRecorder returns an empty Recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Gtag records the call.
func (r *Recorder) Gtag(command gtag.Command, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, Record{Command: command, Args: append([]any(nil), args...)})
	var resolveNow gtag.LookupFunc
	if command == gtag.CommandGet {
		if fn, ok := gtag.LookupOf(args); ok {
			if r.autoResolve {
				resolveNow = fn
			} else {
				r.lookups = append(r.lookups, fn)
			}
		}
	}
	clientID := r.clientID
	r.mu.Unlock()

	if resolveNow != nil {
		resolveNow(clientID)
	}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.calls...)
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Lookups returns the number of unresolved lookups.
func (r *Recorder) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lookups)
}

// Resolve answers the oldest unresolved lookup. It reports false when none
// is outstanding. The continuation runs on the caller's goroutine.
func (r *Recorder) Resolve(clientID string) bool {
	r.mu.Lock()
	if len(r.lookups) == 0 {
		r.mu.Unlock()
		return false
	}
	fn := r.lookups[0]
	r.lookups = r.lookups[1:]
	r.mu.Unlock()

	fn(clientID)
	return true
}

// Reset forgets recorded calls and pending lookups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.lookups = nil
}
