package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishEncodesEvent(t *testing.T) {
	h := NewHub(nil)

	h.Publish(Event{
		Type:   TypeStockRequest,
		Action: "approved",
		Data:   map[string]int{"quantity": 5},
		User:   &Actor{ID: "u1", Name: "Ada"},
	})

	select {
	case raw := <-h.Broadcast:
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, TypeStockRequest, got["type"])
		assert.Equal(t, "approved", got["action"])
		assert.NotEmpty(t, got["at"])
		assert.Equal(t, "Ada", got["user"].(map[string]interface{})["name"])
	case <-time.After(time.Second):
		t.Fatal("event was not broadcast")
	}
}

func TestStopReleasesPendingPublishers(t *testing.T) {
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	h.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, 0, h.ClientCount())

	// must not block or panic once stopped
	h.Publish(Event{Type: TypeCatalog, Action: "noop"})
}
