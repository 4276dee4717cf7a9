package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilPublisherDropsEvents(t *testing.T) {
	// An unconfigured broker must never fail a lifecycle transition.
	var p *NATSPublisher
	require.NoError(t, p.Publish(context.Background(), "dispatch.trip.planned", map[string]string{"trip_id": "t-1"}))
	p.Close()

	p = NewPublisher(nil)
	require.NoError(t, p.Publish(context.Background(), "dispatch.trip.planned", struct{}{}))
	p.Close()
}
