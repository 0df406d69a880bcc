package http

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisekarimi/prism/internal/scheduler"
)

func TestHub_BroadcastsCycleResults(t *testing.T) {
	srv := newTestServer(t, &Handlers{Scheduler: &fakeScheduler{}})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration races the dial return; give the hub a beat.
	time.Sleep(20 * time.Millisecond)

	srv.Hub().Broadcast(scheduler.RunResult{Output: "cycle done", UsageCount: 1, Allowed: true})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got scheduler.RunResult
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "cycle done", got.Output)
	assert.True(t, got.Allowed)
}

func TestHub_ConcurrentBroadcastsAreSerialized(t *testing.T) {
	srv := newTestServer(t, &Handlers{Scheduler: &fakeScheduler{}})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	const perSender = 25
	var wg sync.WaitGroup
	for sender := 0; sender < 2; sender++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				srv.Hub().Broadcast(scheduler.RunResult{Output: "cycle", Allowed: true})
			}
		}()
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2*perSender; i++ {
		var got scheduler.RunResult
		require.NoError(t, conn.ReadJSON(&got), "message %d", i)
		assert.Equal(t, "cycle", got.Output)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	srv := newTestServer(t, &Handlers{Scheduler: &fakeScheduler{}})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	srv.Hub().Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
