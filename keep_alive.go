package mqlite

import "time"

// keepAliveTracker tracks per-client read deadlines. It is owned by
// the broker event loop and is not safe for concurrent use.
//
// Per MQTT, a client that stays silent for one and a half times its
// keep-alive interval may be disconnected. Clients that negotiated
// keep-alive 0 are never tracked.
type keepAliveTracker struct {
	windows   map[*ServerClient]time.Duration
	deadlines map[*ServerClient]time.Time
}

func newKeepAliveTracker() *keepAliveTracker {
	return &keepAliveTracker{
		windows:   make(map[*ServerClient]time.Duration),
		deadlines: make(map[*ServerClient]time.Time),
	}
}

// Register starts tracking a client with the given keep-alive in
// seconds. Zero disables tracking for the client.
func (t *keepAliveTracker) Register(c *ServerClient, seconds uint16, now time.Time) {
	if seconds == 0 {
		t.Remove(c)
		return
	}

	window := time.Duration(seconds) * time.Second
	window += window / 2

	t.windows[c] = window
	t.deadlines[c] = now.Add(window)
}

// Touch resets the client's deadline after any inbound packet.
func (t *keepAliveTracker) Touch(c *ServerClient, now time.Time) {
	window, ok := t.windows[c]
	if !ok {
		return
	}
	t.deadlines[c] = now.Add(window)
}

// Expired returns the clients whose deadline has passed.
func (t *keepAliveTracker) Expired(now time.Time) []*ServerClient {
	var expired []*ServerClient
	for c, deadline := range t.deadlines {
		if now.After(deadline) {
			expired = append(expired, c)
		}
	}
	return expired
}

// Remove stops tracking a client.
func (t *keepAliveTracker) Remove(c *ServerClient) {
	delete(t.windows, c)
	delete(t.deadlines, c)
}
