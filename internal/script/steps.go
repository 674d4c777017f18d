package script

import (
	"fmt"

	"ganeo/internal/gtag"
	"ganeo/pkg/ga4"
)

// compile checks the step's arguments and binds its action.
func (s *Step) compile(index int) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("step %d (%s, line %d): %s", index, s.Kind, s.Line, fmt.Sprintf(format, args...))
	}

	switch s.Kind {
	case StepGA:
		args, ok := s.Value.([]any)
		if !ok || len(args) == 0 {
			return fail("want a non-empty list")
		}
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.GA(args...)
			return nil
		}

	case StepSend, StepSet:
		var args []any
		switch v := s.Value.(type) {
		case []any:
			args = v
		case map[string]any:
			args = []any{v}
		default:
			return fail("want a list or a mapping")
		}
		send := s.Kind == StepSend
		s.run = func(g *ga4.GA4, _ *runState) error {
			if send {
				g.Send(args...)
			} else {
				g.Set(args...)
			}
			return nil
		}

	case StepEvent:
		m, ok := s.Value.(map[string]any)
		if !ok {
			return fail("want a mapping")
		}
		if name, ok := m["name"]; ok {
			n, ok := name.(string)
			if !ok || n == "" {
				return fail("name must be a non-empty string")
			}
			params, _ := m["params"].(map[string]any)
			s.run = func(g *ga4.GA4, _ *runState) error {
				g.CustomEvent(n, params)
				return nil
			}
			break
		}
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.EventFields(m)
			return nil
		}

	case StepException:
		m, err := optionalMap(s.Value)
		if err != nil {
			return fail("%v", err)
		}
		p := ga4.ExceptionParams{Description: stringField(m, "description")}
		if v, ok := m["fatal"]; ok {
			b, ok := v.(bool)
			if !ok {
				return fail("fatal must be a boolean")
			}
			p.Fatal = ga4.Bool(b)
		}
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.Exception(p)
			return nil
		}

	case StepTiming:
		m, ok := s.Value.(map[string]any)
		if !ok {
			return fail("want a mapping")
		}
		p := ga4.TimingParams{
			Category: stringField(m, "category"),
			Variable: stringField(m, "variable"),
			Value:    m["value"],
			Label:    stringField(m, "label"),
		}
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.Timing(p)
			return nil
		}

	case StepPageview:
		var path, title string
		switch v := s.Value.(type) {
		case nil:
		case string:
			path = v
		case map[string]any:
			path, title = stringField(v, "path"), stringField(v, "title")
		default:
			return fail("want a path or a mapping")
		}
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.Pageview(path, title)
			return nil
		}

	case StepClientID:
		m, err := optionalMap(s.Value)
		if err != nil {
			return fail("%v", err)
		}
		label := stringField(m, "label")
		s.run = func(g *ga4.GA4, r *runState) error {
			report := r.report
			g.ClientID(func(tr gtag.Tracker) error {
				report(ClientID{Step: index, Label: label, Tracker: tr})
				return nil
			})
			return nil
		}

	case StepGtag:
		args, ok := s.Value.([]any)
		if !ok || len(args) == 0 {
			return fail("want a non-empty list")
		}
		cmd, ok := args[0].(string)
		if !ok || cmd == "" {
			return fail("first element must be the command name")
		}
		rest := args[1:]
		s.run = func(g *ga4.GA4, _ *runState) error {
			g.Gtag(gtag.Command(cmd), rest...)
			return nil
		}

	default:
		return fmt.Errorf("step %d (line %d): %w %q", index, s.Line, ErrUnknownStep, s.Kind)
	}
	return nil
}

func optionalMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	}
	return nil, fmt.Errorf("want a mapping, got %T", v)
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
