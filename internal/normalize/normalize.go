package normalize

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"ganeo/internal/gtag"
)

// Hit types understood by the send command.
const (
	HitPageview  = "pageview"
	HitEvent     = "event"
	HitTiming    = "timing"
	HitException = "exception"
)

// Event names emitted for translated hits.
const (
	EventPageView       = "page_view"
	EventTimingComplete = "timing_complete"
	EventException      = "exception"
)

// Normalizer holds the only setting that influences translation.
type Normalizer struct {
	// TitleCase uppercases the first character of action, category and
	// label on events built with Event.
	TitleCase bool
}

// Normalize reduces a parsed call to a Result.
func (n Normalizer) Normalize(c Call) Result {
	switch c := c.(type) {
	case CallbackCall:
		return RequestClientID{Callback: c.Callback}
	case ObjectCall:
		switch c.Command {
		case "send":
			return Emit{Call: sendObject(c.Fields)}
		case "set":
			return Emit{Call: Set(c.Fields)}
		}
		return Ignore{Reason: fmt.Sprintf("unsupported command %q", c.Command)}
	case PositionalCall:
		switch c.Command {
		case "send":
			return Emit{Call: sendPositional(c.Args)}
		case "set":
			return Emit{Call: Set(c.Args...)}
		}
		return Ignore{Reason: fmt.Sprintf("unsupported command %q", c.Command)}
	}
	return Ignore{Reason: fmt.Sprintf("unrecognized call %T", c)}
}

// Send translates the argument list of a send command, as in
// ga("send", args...).
func (n Normalizer) Send(args ...any) gtag.Call {
	if len(args) == 1 {
		if fields, ok := asFields(args[0]); ok {
			return sendObject(fields)
		}
	}
	return sendPositional(args)
}

func sendObject(f gtag.Fields) gtag.Call {
	rest := f.Clone()
	hitType := stringOf(rest["hitType"])
	delete(rest, "hitType")

	switch hitType {
	case HitPageview:
		page := stringOf(rest["page"])
		delete(rest, "page")
		return Pageview(page, rest)
	case HitEvent:
		category, action, label, value := rest["eventCategory"], rest["eventAction"], rest["eventLabel"], rest["eventValue"]
		for _, k := range []string{"eventCategory", "eventAction", "eventLabel", "eventValue"} {
			delete(rest, k)
		}
		return sendEvent(category, action, label, value, rest)
	case HitTiming:
		return Timing(rest["timingCategory"], rest["timingVar"], rest["timingValue"], rest["timingLabel"])
	case HitException:
		return Exception(gtag.Fields{"description": rest["exDescription"], "fatal": rest["exFatal"]})
	}
	return unknownHit(hitType, rest)
}

func sendPositional(args []any) gtag.Call {
	hitType := stringOf(arg(args, 0))
	params := []any{}
	if len(args) > 1 {
		params = args[1:]
	}

	switch hitType {
	case HitPageview:
		extra, _ := asFields(arg(params, 1))
		return Pageview(stringOf(arg(params, 0)), extra)
	case HitEvent:
		extra, _ := asFields(arg(params, 4))
		return sendEvent(arg(params, 0), arg(params, 1), arg(params, 2), arg(params, 3), extra)
	case HitTiming:
		return Timing(arg(params, 0), arg(params, 1), arg(params, 2), arg(params, 3))
	case HitException:
		return Exception(gtag.Fields{"description": arg(params, 0), "fatal": arg(params, 1)})
	}

	var extra gtag.Fields
	if len(params) > 0 {
		extra, _ = asFields(params[len(params)-1])
	}
	return unknownHit(hitType, extra)
}

// sendEvent is the event hit of the send command. No casing is applied.
func sendEvent(category, action, label, value any, extra gtag.Fields) gtag.Call {
	payload := Rename(extra)
	if payload == nil {
		payload = gtag.Fields{}
	}
	put(payload, "event_category", category)
	put(payload, "event_label", label)
	if present(value) {
		payload["value"] = value
	}
	return gtag.Event(stringOf(action), payload)
}

func unknownHit(hitType string, extra gtag.Fields) gtag.Call {
	var payload gtag.Fields
	if len(extra) > 0 {
		payload = Rename(extra)
	}
	return gtag.Event(hitType, payload)
}

// Pageview builds a page_view event. page_title is only sent alongside
// page_path; extra fields are renamed and merged.
func Pageview(page string, extra gtag.Fields) gtag.Call {
	rest := extra.Clone()
	title := stringOf(rest["title"])
	location := rest["location"]
	delete(rest, "title")
	delete(rest, "location")
	delete(rest, "hitType")

	payload := Rename(rest)
	if payload == nil {
		payload = gtag.Fields{}
	}
	if page != "" {
		payload["page_path"] = page
		if title != "" {
			payload["page_title"] = title
		}
	}
	put(payload, "page_location", location)

	if len(payload) == 0 {
		return gtag.Event(EventPageView, nil)
	}
	return gtag.Event(EventPageView, payload)
}

// Timing builds a timing_complete event. Absent values are left out.
func Timing(category, variable, value, label any) gtag.Call {
	payload := gtag.Fields{}
	put(payload, "event_category", category)
	put(payload, "name", variable)
	put(payload, "value", value)
	put(payload, "event_label", label)
	return gtag.Event(EventTimingComplete, payload)
}

// TimingFields is the object form of the timing entry point:
// {category, variable, value, label}.
func TimingFields(f gtag.Fields) gtag.Call {
	return Timing(f["category"], f["variable"], f["value"], f["label"])
}

// Exception builds an exception event from {description, fatal}. The
// payload is never nil and only carries supplied fields.
func Exception(f gtag.Fields) gtag.Call {
	payload := gtag.Fields{}
	put(payload, "description", f["description"])
	put(payload, "fatal", f["fatal"])
	return gtag.Event(EventException, payload)
}

// Set translates the arguments of a set command. A single object is
// renamed; a (key, object) pair is forwarded unchanged; a (field, value)
// pair becomes a single renamed field.
func Set(args ...any) gtag.Call {
	call := gtag.Call{Command: gtag.CommandSet}
	switch len(args) {
	case 0:
		call.Payload = gtag.Fields{}
	case 1:
		if f, ok := asFields(args[0]); ok {
			call.Payload = Rename(f)
		} else {
			call.Target = stringOf(args[0])
		}
	default:
		key := stringOf(args[0])
		if f, ok := asFields(args[1]); ok {
			call.Target = key
			call.Payload = f
		} else {
			call.Payload = gtag.Fields{FieldName(key): args[1]}
		}
	}
	return call
}

// CustomEvent is event(name, params): params are renamed, nothing else.
func CustomEvent(name string, params gtag.Fields) gtag.Call {
	return gtag.Event(name, Rename(params))
}

// EventParams is the object form of the event entry point.
type EventParams struct {
	Category       string
	Action         string
	Label          string
	Value          any
	NonInteraction *bool
	Transport      string
	// Extra holds any other legacy fields (dimensionN, metricN, ...).
	Extra gtag.Fields
}

// EventParamsFromFields reads EventParams out of a loosely typed object.
// Key order is irrelevant; unknown keys land in Extra.
func EventParamsFromFields(f gtag.Fields) EventParams {
	p := EventParams{Extra: gtag.Fields{}}
	for k, v := range f {
		switch k {
		case "category":
			p.Category = stringOf(v)
		case "action":
			p.Action = stringOf(v)
		case "label":
			p.Label = stringOf(v)
		case "value":
			p.Value = v
		case "nonInteraction":
			if b, ok := v.(bool); ok {
				p.NonInteraction = &b
			}
		case "transport":
			p.Transport = stringOf(v)
		default:
			p.Extra[k] = v
		}
	}
	return p
}

// Event builds a generic event. The action becomes the event name;
// category, label and action are title-cased unless disabled. Non-numeric
// values are dropped.
func (n Normalizer) Event(p EventParams) gtag.Call {
	payload := Rename(p.Extra)
	if payload == nil {
		payload = gtag.Fields{}
	}
	put(payload, "event_category", n.format(p.Category))
	put(payload, "event_label", n.format(p.Label))
	if isNumber(p.Value) {
		payload["value"] = p.Value
	}
	if p.NonInteraction != nil {
		payload["non_interaction"] = *p.NonInteraction
	}
	put(payload, "transport", p.Transport)
	return gtag.Event(n.format(p.Action), payload)
}

func (n Normalizer) format(s string) string {
	if !n.TitleCase {
		return s
	}
	return UpperFirst(s)
}

// UpperFirst uppercases the first character of s and leaves the rest alone.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
