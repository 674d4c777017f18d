//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"ganeo/internal/gtag"
)

func fromJSArgs(args []js.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = fromJS(a)
	}
	return out
}

// fromJS converts a JS value into the loosely typed Go values the adapter
// parses. Functions become tracker callbacks.
func fromJS(v js.Value) any {
	switch v.Type() {
	case js.TypeUndefined, js.TypeNull:
		return nil
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	case js.TypeFunction:
		return trackerCallback(v)
	case js.TypeObject:
		if js.Global().Get("Array").Call("isArray", v).Bool() {
			out := make([]any, v.Length())
			for i := range out {
				out[i] = fromJS(v.Index(i))
			}
			return out
		}
		keys := js.Global().Get("Object").Call("keys", v)
		out := make(map[string]any, keys.Length())
		for i := 0; i < keys.Length(); i++ {
			k := keys.Index(i).String()
			out[k] = fromJS(v.Get(k))
		}
		return out
	}
	return nil
}

// trackerCallback wraps a JS function(tracker). A returned promise is
// awaited before buffered calls are replayed.
func trackerCallback(fn js.Value) gtag.Callback {
	return func(tr gtag.Tracker) error {
		obj := js.Global().Get("Object").New()
		get := js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) == 0 {
				return js.Undefined()
			}
			return tr.Get(args[0].String())
		})
		defer get.Release()
		obj.Set("get", get)

		result := fn.Invoke(obj)
		if result.Type() != js.TypeObject || result.Get("then").Type() != js.TypeFunction {
			return nil
		}

		done := make(chan error, 1)
		onOK := js.FuncOf(func(js.Value, []js.Value) any {
			done <- nil
			return nil
		})
		onErr := js.FuncOf(func(_ js.Value, args []js.Value) any {
			msg := "rejected"
			if len(args) > 0 {
				msg = args[0].Call("toString").String()
			}
			done <- fmt.Errorf("callback promise: %s", msg)
			return nil
		})
		defer onOK.Release()
		defer onErr.Release()
		result.Call("then", onOK, onErr)
		return <-done
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
