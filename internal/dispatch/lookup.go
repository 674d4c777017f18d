package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"ganeo/internal/gtag"
)

// RequestClientID asks the transport for the client id of the first
// tracking identity and runs cb with a Tracker once it resolves. Calls made
// while the lookup is outstanding are buffered and replayed in order after
// cb returns. A request made while another lookup is outstanding is queued
// like any other call and started when the replay reaches it.
func (d *Dispatcher) RequestClientID(cb gtag.Callback) {
	if cb == nil {
		return
	}

	d.mu.Lock()
	if d.testMode {
		d.mu.Unlock()
		return
	}
	if d.waiting {
		d.replay = append(d.replay, pending{lookup: cb})
		n := len(d.replay)
		d.mu.Unlock()
		d.logger.Debug("client id request queued", zap.Int("pending", n))
		return
	}
	d.waiting = true
	gen := d.generation
	target := d.lookupTargetLocked()
	d.mu.Unlock()

	d.startLookup(gen, target, cb)
}

func (d *Dispatcher) lookupTargetLocked() string {
	if len(d.trackingIDs) == 0 {
		return ""
	}
	return d.trackingIDs[0]
}

func (d *Dispatcher) startLookup(gen uint64, target string, cb gtag.Callback) {
	d.logger.Debug("client id lookup started", zap.String("tracking_id", target))

	var once sync.Once
	continuation := gtag.LookupFunc(func(clientID string) {
		once.Do(func() {
			d.resolve(gen, target, clientID, cb)
		})
	})
	d.transport.Gtag(gtag.CommandGet, target, gtag.ClientIDField, continuation)
}

// resolve runs the caller callback to completion, then drains the buffer.
// waiting stays true until the buffer is empty.
func (d *Dispatcher) resolve(gen uint64, target, clientID string, cb gtag.Callback) {
	if d.stale(gen) {
		d.logger.Debug("ignoring lookup resolved after reset", zap.String("tracking_id", target))
		return
	}
	d.logger.Debug("client id resolved", zap.String("tracking_id", target))

	if err := cb(gtag.NewTracker(clientID, target)); err != nil {
		d.logger.Warn("client id callback failed", zap.String("tracking_id", target), zap.Error(err))
	}
	d.drain(gen)
}

func (d *Dispatcher) stale(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen != d.generation
}

func (d *Dispatcher) drain(gen uint64) {
	replayed := 0
	for {
		d.mu.Lock()
		if gen != d.generation {
			d.mu.Unlock()
			return
		}
		if d.testMode {
			dropped := len(d.replay)
			d.waiting = false
			d.replay = nil
			d.mu.Unlock()
			d.logger.Debug("replay buffer discarded in test mode", zap.Int("dropped", dropped))
			return
		}
		if len(d.replay) == 0 {
			d.waiting = false
			d.replay = nil
			d.mu.Unlock()
			d.logger.Debug("replay buffer drained", zap.Int("replayed", replayed))
			return
		}
		next := d.replay[0]
		d.replay[0] = pending{}
		d.replay = d.replay[1:]
		target := d.lookupTargetLocked()
		d.mu.Unlock()

		if next.lookup != nil {
			// The next lookup keeps waiting set; its own resolution resumes
			// the drain.
			d.logger.Debug("replay paused for queued lookup", zap.Int("replayed", replayed))
			d.startLookup(gen, target, next.lookup)
			return
		}
		d.transport.Gtag(next.command, next.args...)
		replayed++
	}
}
