// Package ga4 exposes a universal-analytics style tracking API on top of a
// gtag transport.
//
// Calls shaped like the legacy client (ga("send", "pageview"),
// event({category, action}), set({anonymizeIp: true}), ...) are translated
// into gtag commands with renamed fields. While a client id lookup is
// outstanding every call is buffered and replayed, in order, once the
// lookup resolves and the caller's callback has returned.
package ga4

import (
	"time"

	"go.uber.org/zap"

	"ganeo/internal/dispatch"
	"ganeo/internal/gtag"
	"ganeo/internal/normalize"
)

type (
	Transport     = gtag.Transport
	TransportFunc = gtag.TransportFunc
	Command       = gtag.Command
	Fields        = gtag.Fields
	Tracker       = gtag.Tracker
	Callback      = gtag.Callback
	TrackerConfig = dispatch.TrackerConfig
	Options       = dispatch.Options
	EventParams   = normalize.EventParams
)

// TimingParams are the fields of the timing entry point.
type TimingParams struct {
	Category string
	Variable string
	Value    any
	Label    string
}

// ExceptionParams are the fields of the exception entry point. Nil and
// empty values are left out of the payload.
type ExceptionParams struct {
	Description string
	Fatal       *bool
}

// GA4 is one adapter instance. The zero value is not usable; call New.
type GA4 struct {
	d      *dispatch.Dispatcher
	logger *zap.Logger
}

// Option configures New.
type Option func(*settings)

type settings struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger sets the logger used by the adapter.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock overrides the time reported by the "js" command.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// New returns an adapter forwarding to t.
func New(t Transport, opts ...Option) *GA4 {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return &GA4{
		d:      dispatch.New(t, dispatch.WithLogger(s.logger.Named("dispatch")), dispatch.WithClock(s.now)),
		logger: s.logger,
	}
}

// Trackers builds tracker configs for plain measurement ids.
func Trackers(ids ...string) []TrackerConfig {
	out := make([]TrackerConfig, len(ids))
	for i, id := range ids {
		out[i] = TrackerConfig{TrackingID: id}
	}
	return out
}

// Initialize configures the measurement ids. See dispatch.Dispatcher.
func (g *GA4) Initialize(trackers []TrackerConfig, opts Options) {
	g.d.Initialize(trackers, opts)
}

func (g *GA4) normalizer() normalize.Normalizer {
	return normalize.Normalizer{TitleCase: g.d.TitleCase()}
}

// GA accepts any legacy ga() invocation: ga(fn), ga("send", ...),
// ga("set", ...). Unsupported commands are logged and dropped.
func (g *GA4) GA(args ...any) {
	switch r := g.normalizer().Normalize(normalize.Parse(args...)).(type) {
	case normalize.Emit:
		g.d.Emit(r.Call)
	case normalize.RequestClientID:
		g.d.RequestClientID(r.Callback)
	case normalize.Ignore:
		g.logger.Warn("legacy call ignored", zap.String("reason", r.Reason))
	}
}

// Send is ga("send", args...).
func (g *GA4) Send(args ...any) {
	g.d.Emit(g.normalizer().Send(args...))
}

// Pageview sends a page_view for path with an optional title.
func (g *GA4) Pageview(path, title string) {
	var extra Fields
	if title != "" {
		extra = Fields{"title": title}
	}
	g.d.Emit(normalize.Pageview(path, extra))
}

// Event sends a generic event. Action becomes the event name.
func (g *GA4) Event(p EventParams) {
	g.d.Emit(g.normalizer().Event(p))
}

// EventFields is Event for a loosely typed {category, action, ...} object.
func (g *GA4) EventFields(f Fields) {
	g.Event(normalize.EventParamsFromFields(f))
}

// CustomEvent sends a named event with renamed params.
func (g *GA4) CustomEvent(name string, params Fields) {
	g.d.Emit(normalize.CustomEvent(name, params))
}

// Set is set(fields) or set(key, fields).
func (g *GA4) Set(args ...any) {
	g.d.Emit(normalize.Set(args...))
}

// Exception sends an exception event.
func (g *GA4) Exception(p ExceptionParams) {
	f := Fields{"description": p.Description}
	if p.Fatal != nil {
		f["fatal"] = *p.Fatal
	}
	g.d.Emit(normalize.Exception(f))
}

// Timing sends a timing_complete event.
func (g *GA4) Timing(p TimingParams) {
	g.d.Emit(normalize.Timing(p.Category, p.Variable, p.Value, p.Label))
}

// ClientID requests the client id; cb runs once it resolves.
func (g *GA4) ClientID(cb Callback) {
	g.d.RequestClientID(cb)
}

// Gtag forwards a raw gtag call, subject to buffering and test mode.
func (g *GA4) Gtag(command Command, args ...any) {
	g.d.EmitArgs(command, args...)
}

// Reset restores the uninitialized state.
func (g *GA4) Reset() {
	g.d.Reset()
}

// Initialized reports whether Initialize has run since the last Reset.
func (g *GA4) Initialized() bool { return g.d.Initialized() }

// Waiting reports whether a client id lookup is outstanding.
func (g *GA4) Waiting() bool { return g.d.Waiting() }

// Pending returns the number of buffered calls.
func (g *GA4) Pending() int { return g.d.Pending() }

// Bool returns a pointer to b, for Options.TitleCase and
// ExceptionParams.Fatal.
func Bool(b bool) *bool { return &b }
