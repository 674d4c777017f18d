//go:build js && wasm

// Command ganeo-wasm exposes the legacy tracking API to a web page as
// globalThis.ganeo, forwarding the translated calls to the page's gtag.
//
//	ganeo.initialize("G-XXXX", {gaOptions: {cookieUpdate: false}})
//	ganeo.ga("send", "pageview", "/home")
//	ganeo.event({category: "video", action: "play"})
package main

import (
	"fmt"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ganeo/internal/config"
	"ganeo/internal/logging"
	"ganeo/internal/transport"
	"ganeo/pkg/ga4"
)

var (
	adapter *ga4.GA4
	logger  *zap.Logger
)

func main() {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	root, err := zc.Build()
	if err != nil {
		root = zap.NewNop()
	}
	logs := logging.Wrap(root, config.LoggingConfig{Level: "info"})
	logger = logs.Get(logging.CategoryCLI)

	gtagFn, err := transport.NewJS("gtag")
	if err != nil {
		logger.Error("gtag is not loaded; ganeo is disabled", zap.Error(err))
		return
	}
	adapter = ga4.New(gtagFn, ga4.WithLogger(logs.Get(logging.CategoryDispatch)))

	api := js.Global().Get("Object").New()
	for name, fn := range map[string]func(args []any) any{
		"initialize":    jsInitialize,
		"ga":            func(args []any) any { adapter.GA(args...); return nil },
		"send":          func(args []any) any { adapter.Send(args...); return nil },
		"set":           func(args []any) any { adapter.Set(args...); return nil },
		"gtag":          jsGtag,
		"event":         jsEvent,
		"pageview":      jsPageview,
		"exception":     jsException,
		"timing":        jsTiming,
		"reset":         func([]any) any { adapter.Reset(); return nil },
		"isInitialized": func([]any) any { return adapter.Initialized() },
	} {
		api.Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("call panicked", zap.Any("panic", r))
				}
			}()
			return fn(fromJSArgs(args))
		}))
	}
	js.Global().Set("ganeo", api)
	logger.Info("ganeo ready")

	// Keep the exported functions alive.
	select {}
}

// jsInitialize accepts a measurement id, an array of ids, or an array of
// {trackingId, gaOptions, gtagOptions} objects, then an options object.
func jsInitialize(args []any) any {
	if len(args) == 0 {
		logger.Warn("initialize needs a measurement id")
		return nil
	}

	var trackers []ga4.TrackerConfig
	switch v := args[0].(type) {
	case string:
		trackers = ga4.Trackers(v)
	case []any:
		for _, t := range v {
			switch t := t.(type) {
			case string:
				trackers = append(trackers, ga4.TrackerConfig{TrackingID: t})
			case map[string]any:
				tc := ga4.TrackerConfig{TrackingID: str(t["trackingId"])}
				tc.GAOptions, _ = t["gaOptions"].(map[string]any)
				tc.GtagOptions, _ = t["gtagOptions"].(map[string]any)
				trackers = append(trackers, tc)
			}
		}
	default:
		logger.Warn("initialize: unsupported measurement id", zap.String("type", fmt.Sprintf("%T", v)))
		return nil
	}

	var opts ga4.Options
	if len(args) > 1 {
		if m, ok := args[1].(map[string]any); ok {
			opts.TestMode, _ = m["testMode"].(bool)
			if b, ok := m["titleCase"].(bool); ok {
				opts.TitleCase = ga4.Bool(b)
			}
			opts.GAOptions, _ = m["gaOptions"].(map[string]any)
			opts.GtagOptions, _ = m["gtagOptions"].(map[string]any)
		}
	}
	adapter.Initialize(trackers, opts)
	return nil
}

// jsEvent is event({category, action, ...}) or event(name, params).
func jsEvent(args []any) any {
	if len(args) == 0 {
		return nil
	}
	switch v := args[0].(type) {
	case string:
		params, _ := arg(args, 1).(map[string]any)
		adapter.CustomEvent(v, params)
	case map[string]any:
		adapter.EventFields(v)
	}
	return nil
}

func jsPageview(args []any) any {
	adapter.Pageview(str(arg(args, 0)), str(arg(args, 1)))
	return nil
}

func jsException(args []any) any {
	m, _ := arg(args, 0).(map[string]any)
	p := ga4.ExceptionParams{Description: str(m["description"])}
	if b, ok := m["fatal"].(bool); ok {
		p.Fatal = ga4.Bool(b)
	}
	adapter.Exception(p)
	return nil
}

func jsTiming(args []any) any {
	m, _ := arg(args, 0).(map[string]any)
	adapter.Timing(ga4.TimingParams{
		Category: str(m["category"]),
		Variable: str(m["variable"]),
		Value:    m["value"],
		Label:    str(m["label"]),
	})
	return nil
}

func jsGtag(args []any) any {
	cmd := str(arg(args, 0))
	if cmd == "" {
		return nil
	}
	adapter.Gtag(ga4.Command(cmd), args[1:]...)
	return nil
}
