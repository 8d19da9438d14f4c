package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisStreamPublisher(client, "", 0)
	ctx := context.Background()
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(ctx, Event{Type: RecordsImported, TeamID: "t1", Count: 3, OccurredAt: at}))

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RecordsImported, msgs[0].Values["type"])
	assert.Equal(t, "t1", msgs[0].Values["team_id"])

	var e Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &e))
	assert.Equal(t, 3, e.Count)
	assert.True(t, at.Equal(e.OccurredAt))
}

// fakeToken completes immediately.
type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeMQTTClient struct {
	mqtt.Client
	sent []published
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{}
}

func TestMQTTPublisher_Topic(t *testing.T) {
	client := &fakeMQTTClient{}
	p := newMQTTPublisher(client, "owl/beneficiaries/", 1)

	require.NoError(t, p.Publish(context.Background(), Event{Type: RecordsCleared, TeamID: "t9", Count: 12}))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "owl/beneficiaries/t9/records.cleared", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var e Event
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &e))
	assert.Equal(t, 12, e.Count)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{Type: RecordsDeleted}))
}
