package service

import (
	"testing"
	"time"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan models.Payment, 1)
	ps.Subscribe(common.PaymentTopicCredited, ch)

	ps.Publish(common.PaymentTopicCredited, models.Payment{ExternalID: "p-1"})

	select {
	case payment := <-ch:
		assert.Equal(t, "p-1", payment.ExternalID)
	case <-time.After(time.Second):
		t.Fatal("no payment delivered")
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	ps := NewPubsub()
	// nobody ever reads from this channel
	ps.Subscribe(common.PaymentTopicCredited, make(chan models.Payment))

	done := make(chan struct{})
	go func() {
		ps.Publish(common.PaymentTopicCredited, models.Payment{ExternalID: "p-1"})
		ps.Publish(common.PaymentTopicCredited, models.Payment{ExternalID: "p-2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a subscriber that never drains")
	}
}

func TestPublishToUnknownTopicIsNoop(t *testing.T) {
	ps := NewPubsub()
	ps.Publish("nobody-listens", models.Payment{ExternalID: "p-1"})
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan models.Payment, 1)
	subID := ps.Subscribe(common.PaymentTopicCredited, ch)

	ps.Unsubscribe(subID, common.PaymentTopicCredited)
	_, open := <-ch
	require.False(t, open)

	// publishing after unsubscribe must not panic
	ps.Publish(common.PaymentTopicCredited, models.Payment{ExternalID: "p-1"})
}
