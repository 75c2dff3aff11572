package handlers

import (
	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/pkg/pubsub"
)

// Activity streams the live feed of contact mutations over
// Server-Sent Events, fed by the Redis broker.
type Activity struct {
	broker *pubsub.Broker
}

// NewActivity creates the activity feed handler.
func NewActivity(broker *pubsub.Broker) *Activity {
	return &Activity{broker: broker}
}

// Routes registers the event stream route.
func (h *Activity) Routes(r loom.Router) {
	r.GET("/activity", h.feed)
}

// feed turns broker messages into rendered feed entries. Each event's
// data is the "activity-item" block, so the htmx sse extension can
// swap it straight into the feed list. The stream ends when the client
// disconnects or the server shuts down.
func (h *Activity) feed(c loom.Context) (any, error) {
	return loom.Events(func(yield func(any) bool) {
		for msg := range h.broker.Subscribe(c, activityChannel) {
			var entry activity
			if err := msg.Decode(&entry); err != nil {
				c.LogWarn("decode activity", "error", err)
				continue
			}
			if !yield(loom.Fragment("contacts/index", "activity-item", entry)) {
				return
			}
		}
	}), nil
}
