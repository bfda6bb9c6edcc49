// AngelaMos | 2026
// hub_test.go

package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, frame []byte) Event {
	t.Helper()

	var ev Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	return ev
}

func TestPublish_ReachesEverySubscriber(t *testing.T) {
	hub := NewHub(4, nil)
	a := hub.Subscribe()
	b := hub.Subscribe()

	n := hub.Publish(TopicMeetupCreated, map[string]string{"title": "Churrasco"})
	assert.Equal(t, 2, n)

	for _, sub := range []*Subscription{a, b} {
		ev := decode(t, <-sub.Events())
		assert.Equal(t, string(TopicMeetupCreated), ev.Type)
		assert.JSONEq(t, `{"title":"Churrasco"}`, string(ev.Payload))
	}
}

func TestPublish_PreservesOrderPerSubscriber(t *testing.T) {
	hub := NewHub(16, nil)
	sub := hub.Subscribe()

	for i := range 10 {
		hub.Publish(TopicMessageNew, i)
	}

	for i := range 10 {
		ev := decode(t, <-sub.Events())
		assert.JSONEq(t, fmt.Sprint(i), string(ev.Payload))
	}
}

func TestPublish_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1, nil)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	assert.Equal(t, 2, hub.Publish(TopicMessageNew, "one"))
	<-fast.Events()

	assert.Equal(t, 1, hub.Publish(TopicMessageNew, "two"))
	assert.Equal(t, 1, hub.Count())

	<-slow.Events()
	_, open := <-slow.Events()
	assert.False(t, open)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe()

	sub.Close()
	sub.Close()

	assert.Zero(t, hub.Count())
	assert.Zero(t, hub.Publish(TopicPlansChanged, nil))
}

func TestPublish_ConcurrentSubscribeAndClose(t *testing.T) {
	hub := NewHub(256, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe()
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			hub.Publish(TopicSettingsChanged, "x")
		}()
	}
	wg.Wait()

	assert.Zero(t, hub.Count())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe()

	hub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Zero(t, hub.Count())
}
