// Package dispatch owns the adapter's mutable state and decides, for every
// canonical call, whether it goes to the transport now or waits in the
// replay buffer behind an outstanding client id lookup.
package dispatch

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"ganeo/internal/gtag"
	"ganeo/internal/normalize"
)

// TrackerConfig is one tracking identity passed to Initialize.
type TrackerConfig struct {
	TrackingID  string
	GAOptions   gtag.Fields
	GtagOptions gtag.Fields
}

// Options are the initialization options.
type Options struct {
	// TestMode suppresses every transport call.
	TestMode bool
	// TitleCase defaults to true when nil.
	TitleCase   *bool
	GAOptions   gtag.Fields
	GtagOptions gtag.Fields
}

// pending is one buffered entry: the rendered arguments of a call, or a
// client id request that arrived while another lookup was outstanding.
type pending struct {
	command gtag.Command
	args    []any
	lookup  gtag.Callback
}

// Dispatcher is the single owner of the adapter state. Methods are safe to
// call from several goroutines; the transport and caller callbacks are
// always invoked without the lock held.
type Dispatcher struct {
	transport gtag.Transport
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	initialized bool
	// configured is set once js and config have been emitted.
	configured  bool
	testMode    bool
	titleCase   bool
	trackingIDs []string
	waiting     bool
	replay      []pending
	// generation is bumped by Reset so continuations of abandoned lookups
	// are ignored.
	generation uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock overrides the time source used for the "js" command.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Dispatcher forwarding to t.
func New(t gtag.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		logger:    zap.NewNop(),
		now:       time.Now,
		titleCase: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initialize records the tracking identities and options. The first call
// outside test mode emits ("js", now) followed by one config command per
// identity, in order. Until then each call replaces the tracking identities;
// afterwards calls only update the options.
func (d *Dispatcher) Initialize(trackers []TrackerConfig, opts Options) {
	d.mu.Lock()
	d.initialized = true
	d.testMode = opts.TestMode
	d.titleCase = opts.TitleCase == nil || *opts.TitleCase
	first := !d.configured
	if first {
		d.trackingIDs = d.trackingIDs[:0]
		for _, tc := range trackers {
			d.trackingIDs = append(d.trackingIDs, tc.TrackingID)
		}
		d.configured = !opts.TestMode
	}
	d.mu.Unlock()

	if !first {
		d.logger.Debug("already initialized, options updated", zap.Bool("test_mode", opts.TestMode))
		return
	}
	d.logger.Info("initialized",
		zap.Strings("tracking_ids", d.TrackingIDs()),
		zap.Bool("test_mode", opts.TestMode))

	d.EmitArgs(gtag.CommandJS, d.now())
	for _, tc := range trackers {
		options := normalize.ConfigOptions(opts.GAOptions, tc.GAOptions, opts.GtagOptions, tc.GtagOptions)
		d.Emit(gtag.Call{Command: gtag.CommandConfig, Target: tc.TrackingID, Payload: options})
	}
}

// Emit forwards c, buffers it while a lookup is outstanding, or drops it in
// test mode.
func (d *Dispatcher) Emit(c gtag.Call) {
	d.EmitArgs(c.Command, c.Args()...)
}

// EmitArgs is Emit for calls already rendered as positional arguments.
func (d *Dispatcher) EmitArgs(cmd gtag.Command, args ...any) {
	d.mu.Lock()
	if d.testMode {
		d.mu.Unlock()
		return
	}
	if d.waiting {
		d.replay = append(d.replay, pending{command: cmd, args: args})
		n := len(d.replay)
		d.mu.Unlock()
		d.logger.Debug("call buffered", zap.String("command", string(cmd)), zap.Int("pending", n))
		return
	}
	d.mu.Unlock()
	d.transport.Gtag(cmd, args...)
}

// Waiting reports whether a client id lookup is outstanding.
func (d *Dispatcher) Waiting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// Pending returns the number of buffered entries.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.replay)
}

// Initialized reports whether Initialize has been called since the last
// Reset.
func (d *Dispatcher) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// TitleCase reports the current title-casing setting.
func (d *Dispatcher) TitleCase() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.titleCase
}

// TrackingIDs returns a copy of the configured tracking ids.
func (d *Dispatcher) TrackingIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.trackingIDs...)
}

// Reset restores the initial state. Lookups still in flight are abandoned:
// their continuations become no-ops.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	d.configured = false
	d.testMode = false
	d.titleCase = true
	d.trackingIDs = nil
	d.waiting = false
	d.replay = nil
	d.generation++
}
