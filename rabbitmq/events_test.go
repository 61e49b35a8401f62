package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inference-gateway/models"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange, key string
	published     []amqp.Publishing
	err           error
	closed        bool
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange, c.key = exchange, key
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestEventObserverPublishesRun(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "inference", routingKey: "inference.run"}

	EventObserver{Publisher: p}.ObserveRun(models.RunRecord{
		ID:        "run-1",
		Task:      models.KindSpeechToText,
		Model:     "openai/whisper-large-v3",
		Outcome:   models.OutcomeFailure,
		ErrorKind: models.KindTimeout,
		Message:   "secret caller text",
		Attempts:  1,
		Duration:  2 * time.Second,
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	})

	require.Len(t, ch.published, 1)
	assert.Equal(t, "inference", ch.exchange)
	assert.Equal(t, "inference.run", ch.key)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var ev RunEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &ev))
	assert.Equal(t, "speech-to-text", ev.Task)
	assert.Equal(t, "timeout", ev.ErrorKind)
	assert.Equal(t, int64(2000), ev.DurationMs)
	assert.Equal(t, "2026-10-01T12:00:00.000Z", ev.StartedAt)
	assert.NotContains(t, string(ch.published[0].Body), "secret caller text")
}

func TestEventObserverToleratesPublishErrors(t *testing.T) {
	p := &Publisher{channel: &fakeChannel{err: errors.New("channel closed")}}
	assert.NotPanics(t, func() {
		EventObserver{Publisher: p}.ObserveRun(models.RunRecord{ID: "run-2"})
	})
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch}
	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
