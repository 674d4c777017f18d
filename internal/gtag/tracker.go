package gtag

// APIVersion is reported by every Tracker.
const APIVersion = "1"

// Tracker is the read-only view handed to client id callbacks once a lookup
// resolves.
type Tracker struct {
	clientID   string
	trackingID string
}

// NewTracker returns a Tracker for the given lookup result.
func NewTracker(clientID, trackingID string) Tracker {
	return Tracker{clientID: clientID, trackingID: trackingID}
}

// Get looks up a legacy tracker field. Unknown keys return "".
func (t Tracker) Get(key string) string {
	switch key {
	case "clientId":
		return t.clientID
	case "trackingId":
		return t.trackingID
	case "apiVersion":
		return APIVersion
	}
	return ""
}

func (t Tracker) ClientID() string   { return t.clientID }
func (t Tracker) TrackingID() string { return t.trackingID }

// Callback is the uniform form of a client id callback. It returns once the
// caller's work is complete.
type Callback func(Tracker) error

// AsCallback converts the accepted callback shapes into a Callback.
// Asynchronous callbacks return a channel that is closed (or sent to) when
// they finish; the returned Callback blocks until then.
func AsCallback(v any) (Callback, bool) {
	switch fn := v.(type) {
	case Callback:
		return fn, fn != nil
	case func(Tracker) error:
		return Callback(fn), fn != nil
	case func(Tracker):
		if fn == nil {
			return nil, false
		}
		return func(t Tracker) error {
			fn(t)
			return nil
		}, true
	case func(Tracker) <-chan struct{}:
		if fn == nil {
			return nil, false
		}
		return func(t Tracker) error {
			if done := fn(t); done != nil {
				<-done
			}
			return nil
		}, true
	}
	return nil, false
}
