package events

import (
	"context"
	"sync"
)

// MemoryEventBus is an in-process Bus for single-node deployments and tests.
type MemoryEventBus struct {
	resolver ChannelResolver

	mu     sync.RWMutex
	subs   map[string]map[chan Envelope]struct{}
	closed bool
}

func NewMemoryEventBus(resolver ChannelResolver) *MemoryEventBus {
	return &MemoryEventBus{
		resolver: resolver,
		subs:     make(map[string]map[chan Envelope]struct{}),
	}
}

func (b *MemoryEventBus) Publish(ctx context.Context, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	for _, channel := range b.resolver.ResolveChannels(env) {
		for ch := range b.subs[channel] {
			select {
			case ch <- env:
			default:
			}
		}
	}
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan Envelope, error) {
	ch := make(chan Envelope, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan Envelope]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, ch)
	}()
	return ch, nil
}

func (b *MemoryEventBus) remove(channel string, ch chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[channel][ch]; !ok {
		return
	}
	delete(b.subs[channel], ch)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
	close(ch)
}

// Close drops every subscriber, closing their channels.
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, channel)
	}
	return nil
}
