// Package gtag describes the outbound side of the adapter: the command
// keywords understood by a gtag-style global function, the canonical call
// shape every legacy call is reduced to, and the Transport that receives it.
package gtag

// Command is the first positional argument of a gtag invocation.
type Command string

const (
	CommandJS     Command = "js"
	CommandConfig Command = "config"
	CommandEvent  Command = "event"
	CommandSet    Command = "set"
	CommandGet    Command = "get"
)

// Fields is a loosely typed parameter object.
type Fields map[string]any

// Clone returns a shallow copy. A nil receiver yields nil.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Call is the canonical (command, target, payload) triple.
//
// Target is the event name for event calls, the tracking id for config
// calls and the optional key for set calls. A nil Payload is omitted from
// the emitted arguments; an empty non-nil Payload is emitted as {}.
type Call struct {
	Command Command
	Target  string
	Payload Fields
}

// Event builds an event call.
func Event(name string, payload Fields) Call {
	return Call{Command: CommandEvent, Target: name, Payload: payload}
}

// Args renders the positional arguments that follow the command keyword.
func (c Call) Args() []any {
	args := make([]any, 0, 2)
	switch c.Command {
	case CommandSet:
		if c.Target != "" {
			args = append(args, c.Target)
		}
	default:
		args = append(args, c.Target)
	}
	if c.Payload != nil {
		args = append(args, map[string]any(c.Payload))
	}
	return args
}

// Transport is the external gtag collaborator. Implementations decide what
// delivery means; the adapter only guarantees call order.
type Transport interface {
	Gtag(command Command, args ...any)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(command Command, args ...any)

// Gtag calls f(command, args...).
func (f TransportFunc) Gtag(command Command, args ...any) {
	f(command, args...)
}

// ClientIDField is the field name requested by client id lookups.
const ClientIDField = "client_id"

// LookupFunc is the continuation passed as the last argument of a
// ("get", target, "client_id", fn) call. Transports invoke it once with the
// resolved value.
type LookupFunc func(clientID string)

// LookupOf extracts the continuation of a get call from its arguments.
func LookupOf(args []any) (LookupFunc, bool) {
	if len(args) == 0 {
		return nil, false
	}
	switch fn := args[len(args)-1].(type) {
	case LookupFunc:
		return fn, fn != nil
	case func(string):
		return LookupFunc(fn), fn != nil
	}
	return nil, false
}
