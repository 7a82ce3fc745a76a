package services

import (
	"context"

	"uniform-studio/internal/events"

	"go.uber.org/zap"
)

// watch reloads with load on start and after every relevant envelope, and forwards
// the result on a 1-slot channel. An undelivered value is replaced by the newer
// one, so a slow consumer only ever sees the latest state. The returned channel is
// closed when ctx ends or the subscription drops.
func watch[T any](ctx context.Context, sub <-chan events.Envelope, relevant func(events.Envelope) bool, load func(context.Context) (T, error), log *zap.Logger) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		dirty := true
		for {
			if dirty {
				dirty = false
				v, err := load(ctx)
				switch {
				case ctx.Err() != nil:
					return
				case err != nil:
					log.Warn("live reload failed", zap.Error(err))
				default:
					offerLatest(out, v)
				}
			}

			select {
			case <-ctx.Done():
				return
			case env, ok := <-sub:
				if !ok {
					return
				}
				dirty = dirty || relevant(env)
			}

			// Fold an event burst into a single reload.
		drain:
			for {
				select {
				case env, ok := <-sub:
					if !ok {
						return
					}
					dirty = dirty || relevant(env)
				default:
					break drain
				}
			}
		}
	}()
	return out
}

// offerLatest must only be called by the channel's single producer.
func offerLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func isMessageEvent(env events.Envelope) bool {
	return env.AggregateType == events.AggregateTypeRoom
}

func anyEvent(events.Envelope) bool {
	return true
}
