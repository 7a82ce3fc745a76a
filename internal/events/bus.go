package events

import (
	"context"
)

// Bus fans envelopes out to live subscribers. Delivery is at-most-once; a subscriber
// that was not connected when an envelope was published never sees it.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe returns a channel of envelopes published to channel after the call
	// returns. The channel is closed once ctx is done.
	Subscribe(ctx context.Context, channel string) (<-chan Envelope, error)
	Close() error
}

const subscriberBuffer = 16
