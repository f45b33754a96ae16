package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

func TestHub_PublishesInOrderPerSession(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("s1")
	defer cancelA()
	other, cancelOther := h.Subscribe("s2")
	defer cancelOther()

	h.Publish("s1", []game.ActionEvent{{Seq: 1}, {Seq: 2}})

	require.Len(t, a, 2)
	assert.Equal(t, int64(1), (<-a).Seq)
	assert.Equal(t, int64(2), (<-a).Seq)
	assert.Len(t, other, 0)
}

func TestHub_CancelClosesAndIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	assert.Equal(t, 1, h.SubscriberCount("s1"))
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, h.SubscriberCount("s1"))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	defer cancel()

	events := make([]game.ActionEvent, subscriberBuffer+1)
	for i := range events {
		events[i].Seq = int64(i + 1)
	}
	h.Publish("s1", events)

	assert.Zero(t, h.SubscriberCount("s1"))
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}
