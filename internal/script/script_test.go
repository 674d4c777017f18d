package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ganeo/internal/gtag"
	"ganeo/internal/transport"
	"ganeo/pkg/ga4"
)

var fixedNow = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const fullScript = `
trackers:
  - G-1
  - tracking_id: G-2
    ga_options: {userId: u1}
options:
  title_case: false
steps:
  - ga: [send, pageview, /home]
  - send: {hitType: event, eventCategory: video, eventAction: play}
  - event: {category: video, action: pause, label: intro}
  - event: {name: screenview, params: {screen_name: Home}}
  - set: {anonymizeIp: true}
  - set: [user_properties, {tier: gold}]
  - exception: {description: boom, fatal: false}
  - exception:
  - timing: {category: DOM, variable: fcp, value: 120}
  - pageview: {path: /about, title: About}
  - pageview: /plain
  - client_id: {label: first}
  - gtag: [event, raw, {a: 1}]
`

func newAdapter(opts ...transport.RecorderOption) (*ga4.GA4, *transport.Recorder) {
	rec := transport.NewRecorder(opts...)
	return ga4.New(rec, ga4.WithClock(func() time.Time { return fixedNow })), rec
}

func flatten(rec *transport.Recorder) [][]any {
	var out [][]any
	for _, c := range rec.Calls() {
		row := []any{string(c.Command)}
		for _, a := range c.Args {
			if _, ok := gtag.LookupOf([]any{a}); ok {
				a = "<lookup>"
			}
			row = append(row, a)
		}
		out = append(out, row)
	}
	return out
}

func TestRunFullScript(t *testing.T) {
	s, err := Parse([]byte(fullScript))
	require.NoError(t, err)
	require.Len(t, s.Steps, 13)

	g, rec := newAdapter(transport.ResolveWith("cid-1"))
	var reports []ClientID
	require.NoError(t, s.Run(context.Background(), g, WithReporter(func(c ClientID) {
		reports = append(reports, c)
	})))

	want := [][]any{
		{"js", fixedNow},
		{"config", "G-1"},
		{"config", "G-2", map[string]any{"user_id": "u1"}},
		{"event", "page_view", map[string]any{"page_path": "/home"}},
		{"event", "play", map[string]any{"event_category": "video"}},
		{"event", "pause", map[string]any{"event_category": "video", "event_label": "intro"}},
		{"event", "screenview", map[string]any{"screen_name": "Home"}},
		{"set", map[string]any{"anonymize_ip": true}},
		{"set", "user_properties", map[string]any{"tier": "gold"}},
		{"event", "exception", map[string]any{"description": "boom", "fatal": false}},
		{"event", "exception", map[string]any{}},
		{"event", "timing_complete", map[string]any{"event_category": "DOM", "name": "fcp", "value": 120}},
		{"event", "page_view", map[string]any{"page_path": "/about", "page_title": "About"}},
		{"event", "page_view", map[string]any{"page_path": "/plain"}},
		{"get", "G-1", "client_id", "<lookup>"},
		{"event", "raw", map[string]any{"a": 1}},
	}
	if diff := cmp.Diff(want, flatten(rec)); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, reports, 1)
	assert.Equal(t, 11, reports[0].Step)
	assert.Equal(t, "first", reports[0].Label)
	assert.Equal(t, "cid-1", reports[0].Tracker.ClientID())
}

func TestRunBuffersBehindUnresolvedClientID(t *testing.T) {
	s, err := Parse([]byte(`
trackers: [G-1]
steps:
  - client_id:
  - pageview: /later
`))
	require.NoError(t, err)

	g, rec := newAdapter()
	require.NoError(t, s.Run(context.Background(), g))
	assert.Equal(t, 1, g.Pending())

	rec.Resolve("abc")
	assert.Equal(t, 0, g.Pending())
	last := rec.Calls()[rec.Len()-1]
	assert.Equal(t, []any{"page_view", map[string]any{"page_path": "/later"}}, last.Args)
}

func TestRunSkipInitialize(t *testing.T) {
	s, err := Parse([]byte("trackers: [G-1]\nsteps:\n  - pageview: /x\n"))
	require.NoError(t, err)

	g, rec := newAdapter()
	require.NoError(t, s.Run(context.Background(), g, SkipInitialize()))
	assert.Equal(t, 1, rec.Len())
	assert.False(t, g.Initialized())
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - pageview: /x\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, rec := newAdapter()
	assert.ErrorIs(t, s.Run(ctx, g), context.Canceled)
	assert.Equal(t, 0, rec.Len())
}

func TestRunCompilesProgrammaticSteps(t *testing.T) {
	s := &Script{Steps: []Step{{Kind: StepPageview, Value: "/built"}}}
	g, rec := newAdapter()
	require.NoError(t, s.Run(context.Background(), g))
	assert.Equal(t, 1, rec.Len())

	bad := &Script{Steps: []Step{{Kind: "teleport"}}}
	assert.ErrorIs(t, bad.Run(context.Background(), g), ErrUnknownStep)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown kind", "steps:\n  - teleport: [x]\n", "unknown step"},
		{"two keys", "steps:\n  - ga: [send]\n    set: {}\n", "exactly one key"},
		{"ga needs list", "steps:\n  - ga: send\n", "want a non-empty list"},
		{"event needs map", "steps:\n  - event: [a]\n", "want a mapping"},
		{"custom event name", "steps:\n  - event: {name: 3}\n", "name must be a non-empty string"},
		{"fatal type", "steps:\n  - exception: {fatal: yes-ish}\n", "fatal must be a boolean"},
		{"gtag command", "steps:\n  - gtag: [1, x]\n", "first element must be the command name"},
		{"pageview type", "steps:\n  - pageview: [a]\n", "want a path or a mapping"},
		{"client_id type", "steps:\n  - client_id: [a]\n", "want a mapping"},
		{"bad yaml", "steps: [", "failed to parse script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := Parse([]byte("steps:\n  - teleport: [x]\n"))
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullScript), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "G-2", s.Trackers[1].TrackingID)
	assert.Equal(t, ga4.Options{TitleCase: ga4.Bool(false)}, s.AdapterOptions())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read script")
}
