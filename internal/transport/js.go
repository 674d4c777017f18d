//go:build js && wasm

package transport

import (
	"fmt"
	"syscall/js"
	"time"

	"ganeo/internal/gtag"
)

// JS forwards calls to a global gtag function in the browser.
type JS struct {
	fn js.Value
}

// NewJS looks up the global function called name (usually "gtag").
func NewJS(name string) (*JS, error) {
	fn := js.Global().Get(name)
	if fn.Type() != js.TypeFunction {
		return nil, fmt.Errorf("global %q is not a function", name)
	}
	return &JS{fn: fn}, nil
}

func (t *JS) Gtag(command gtag.Command, args ...any) {
	jsArgs := make([]any, 0, len(args)+1)
	jsArgs = append(jsArgs, string(command))
	for _, a := range args {
		jsArgs = append(jsArgs, toJS(a))
	}
	t.fn.Invoke(jsArgs...)
}

func toJS(v any) any {
	switch x := v.(type) {
	case time.Time:
		return js.Global().Get("Date").New(x.UnixMilli())
	case gtag.Fields:
		return mapToJS(x)
	case map[string]any:
		return mapToJS(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toJS(e)
		}
		return out
	case gtag.LookupFunc:
		return lookupToJS(x)
	case func(string):
		return lookupToJS(x)
	}
	return v
}

func mapToJS(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = toJS(v)
	}
	return out
}

// lookupToJS wraps a continuation; the js.Func is released after its first
// invocation.
func lookupToJS(fn func(string)) js.Func {
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer f.Release()
		clientID := ""
		if len(args) > 0 && args[0].Type() == js.TypeString {
			clientID = args[0].String()
		}
		// Resolution may block on the caller's callback; keep it off the
		// event loop.
		go fn(clientID)
		return nil
	})
	return f
}
