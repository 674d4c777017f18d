// Package normalize translates legacy universal-analytics call shapes into
// canonical gtag calls. Everything here is pure: no state, no transport.
package normalize

import (
	"ganeo/internal/gtag"
)

// Call is a parsed legacy invocation. It is one of CallbackCall,
// ObjectCall or PositionalCall.
type Call interface {
	isCall()
}

// CallbackCall is ga(fn): a request for the client id.
type CallbackCall struct {
	Callback gtag.Callback
}

// ObjectCall is ga(command, {fields}).
type ObjectCall struct {
	Command string
	Fields  gtag.Fields
}

// PositionalCall is ga(command, arg1, arg2, ...). Args excludes the command.
type PositionalCall struct {
	Command string
	Args    []any
}

func (CallbackCall) isCall()   {}
func (ObjectCall) isCall()     {}
func (PositionalCall) isCall() {}

// Parse classifies raw legacy arguments. It never fails; shapes it does not
// recognize come back as a PositionalCall and are dealt with by Normalize.
func Parse(args ...any) Call {
	if len(args) == 0 {
		return PositionalCall{}
	}
	if len(args) == 1 {
		if cb, ok := gtag.AsCallback(args[0]); ok {
			return CallbackCall{Callback: cb}
		}
	}

	command, ok := args[0].(string)
	if !ok {
		return PositionalCall{Args: args}
	}
	rest := args[1:]
	if len(rest) == 1 {
		if fields, ok := asFields(rest[0]); ok {
			return ObjectCall{Command: command, Fields: fields}
		}
	}
	return PositionalCall{Command: command, Args: rest}
}

// Result is the outcome of normalizing one Call. It is one of Emit,
// RequestClientID or Ignore.
type Result interface {
	isResult()
}

// Emit carries a call ready for the transport.
type Emit struct {
	Call gtag.Call
}

// RequestClientID asks the dispatcher to look up the client id.
type RequestClientID struct {
	Callback gtag.Callback
}

// Ignore is returned for legacy commands with no gtag equivalent.
type Ignore struct {
	Reason string
}

func (Emit) isResult()            {}
func (RequestClientID) isResult() {}
func (Ignore) isResult()          {}

// asFields accepts the map shapes callers and decoders produce.
func asFields(v any) (gtag.Fields, bool) {
	switch m := v.(type) {
	case gtag.Fields:
		return m, m != nil
	case map[string]any:
		return gtag.Fields(m), m != nil
	case map[string]string:
		if m == nil {
			return nil, false
		}
		out := make(gtag.Fields, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// present reports whether a legacy value counts as supplied: nil and the
// empty string do not.
func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func put(dst gtag.Fields, key string, v any) {
	if present(v) {
		dst[key] = v
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}
