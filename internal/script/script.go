// Package script runs YAML call scripts against a ga4 adapter.
//
// A script names the trackers to initialize and lists legacy calls, one
// per step:
//
//	trackers: [G-XXXX]
//	options: {title_case: false}
//	steps:
//	  - ga: [send, pageview, /home]
//	  - event: {category: video, action: play}
//	  - client_id: {label: first}
package script

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ganeo/internal/gtag"
	"ganeo/pkg/ga4"
)

// ErrUnknownStep is returned by Parse for a step kind it does not know.
var ErrUnknownStep = errors.New("unknown step")

// Step kinds.
const (
	StepGA        = "ga"
	StepSend      = "send"
	StepEvent     = "event"
	StepSet       = "set"
	StepException = "exception"
	StepTiming    = "timing"
	StepPageview  = "pageview"
	StepClientID  = "client_id"
	StepGtag      = "gtag"
)

// TrackerEntry is one entry of trackers. A bare string is a tracking id.
type TrackerEntry struct {
	TrackingID  string         `yaml:"tracking_id"`
	GAOptions   map[string]any `yaml:"ga_options,omitempty"`
	GtagOptions map[string]any `yaml:"gtag_options,omitempty"`
}

func (t *TrackerEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		t.TrackingID = n.Value
		return nil
	}
	type plain TrackerEntry
	return n.Decode((*plain)(t))
}

// ScriptOptions mirrors ga4.Options.
type ScriptOptions struct {
	TestMode    bool           `yaml:"test_mode"`
	TitleCase   *bool          `yaml:"title_case"`
	GAOptions   map[string]any `yaml:"ga_options,omitempty"`
	GtagOptions map[string]any `yaml:"gtag_options,omitempty"`
}

// Step is a single-key mapping: the key is the kind, the value its
// arguments.
type Step struct {
	Kind  string
	Value any
	Line  int

	run func(g *ga4.GA4, r *runState) error
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	s.Line = n.Line
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return fmt.Errorf("line %d: step must be a mapping with exactly one key", n.Line)
	}
	s.Kind = n.Content[0].Value
	return n.Content[1].Decode(&s.Value)
}

// Script is a parsed call script.
type Script struct {
	Trackers []TrackerEntry `yaml:"trackers"`
	Options  ScriptOptions  `yaml:"options"`
	Steps    []Step         `yaml:"steps"`
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script and checks every step's arguments.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i := range s.Steps {
		if err := s.Steps[i].compile(i); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// TrackerConfigs converts the trackers section.
func (s *Script) TrackerConfigs() []ga4.TrackerConfig {
	out := make([]ga4.TrackerConfig, 0, len(s.Trackers))
	for _, t := range s.Trackers {
		out = append(out, ga4.TrackerConfig{
			TrackingID:  t.TrackingID,
			GAOptions:   t.GAOptions,
			GtagOptions: t.GtagOptions,
		})
	}
	return out
}

// AdapterOptions converts the options section.
func (s *Script) AdapterOptions() ga4.Options {
	return ga4.Options{
		TestMode:    s.Options.TestMode,
		TitleCase:   s.Options.TitleCase,
		GAOptions:   s.Options.GAOptions,
		GtagOptions: s.Options.GtagOptions,
	}
}

// ClientID is reported for each resolved client_id step.
type ClientID struct {
	Step    int
	Label   string
	Tracker gtag.Tracker
}

// RunOption configures Run.
type RunOption func(*runState)

// WithReporter receives resolved client_id steps. It may be called from
// another goroutine, after Run has returned.
func WithReporter(fn func(ClientID)) RunOption {
	return func(r *runState) { r.report = fn }
}

// WithLogger sets the step logger.
func WithLogger(l *zap.Logger) RunOption {
	return func(r *runState) {
		if l != nil {
			r.logger = l
		}
	}
}

// SkipInitialize leaves initialization to the caller.
func SkipInitialize() RunOption {
	return func(r *runState) { r.skipInit = true }
}

type runState struct {
	logger   *zap.Logger
	report   func(ClientID)
	skipInit bool
}

// Run initializes g from the script, unless SkipInitialize is given, and
// executes the steps in order. It stops at the first failing step or when
// ctx is done.
func (s *Script) Run(ctx context.Context, g *ga4.GA4, opts ...RunOption) error {
	r := &runState{logger: zap.NewNop(), report: func(ClientID) {}}
	for _, opt := range opts {
		opt(r)
	}

	if !r.skipInit && len(s.Trackers) > 0 {
		g.Initialize(s.TrackerConfigs(), s.AdapterOptions())
	}

	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := &s.Steps[i]
		if step.run == nil {
			if err := step.compile(i); err != nil {
				return err
			}
		}
		r.logger.Debug("step", zap.Int("index", i), zap.String("kind", step.Kind))
		if err := step.run(g, r); err != nil {
			return fmt.Errorf("step %d (%s, line %d): %w", i, step.Kind, step.Line, err)
		}
	}
	return nil
}
