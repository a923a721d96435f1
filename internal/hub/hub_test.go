// internal/hub/hub_test.go
package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failNext bool
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errors.New("connection gone")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.messages = append(f.messages, cp)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.messages))
	copy(out, f.messages)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := New()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	other := &fakeConn{}

	h.Subscribe("prod-1", c1)
	h.Subscribe("prod-1", c2)
	h.Subscribe("prod-2", other)

	h.Publish("prod-1", 20.25)

	waitFor(t, func() bool { return len(c1.received()) == 1 && len(c2.received()) == 1 })

	var msg PriceUpdate
	require.NoError(t, json.Unmarshal(c1.received()[0], &msg))
	assert.Equal(t, "price_update", msg.Type)
	assert.Equal(t, "prod-1", msg.ProductID)
	assert.Equal(t, 20.25, msg.Price)

	// Other product's room stays silent.
	assert.Empty(t, other.received())
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	h := New()
	h.Publish("nobody-home", 9.99)
	assert.Equal(t, 0, h.Subscribers("nobody-home"))
}

func TestCloseRemovesSubscription(t *testing.T) {
	h := New()
	conn := &fakeConn{}
	client := h.Subscribe("prod-1", conn)
	assert.Equal(t, 1, h.Subscribers("prod-1"))

	client.Close()
	assert.Equal(t, 0, h.Subscribers("prod-1"))
	assert.True(t, conn.closed)

	// Publishing after close neither panics nor delivers.
	h.Publish("prod-1", 1.00)
	assert.Empty(t, conn.received())

	// Close is idempotent.
	client.Close()
}

func TestFailedWriteDropsConnection(t *testing.T) {
	h := New()
	conn := &fakeConn{failNext: true}
	h.Subscribe("prod-1", conn)

	h.Publish("prod-1", 3.50)

	waitFor(t, func() bool { return h.Subscribers("prod-1") == 0 })
}

func TestConcurrentPublishAndClose(t *testing.T) {
	h := New()
	const clients = 20

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		client := h.Subscribe("prod-1", &fakeConn{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Publish("prod-1", 10.00)
		}()
		go func() {
			defer wg.Done()
			client.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.Subscribers("prod-1"))
}
