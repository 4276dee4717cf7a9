package ports

import "context"

// Port: outbound lifecycle event publishing. Implementations marshal the
// payload and deliver it to the given subject; delivery is best effort and
// must never block a lifecycle transition on broker availability.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
