package stream

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamServer serves the activity stream protocol for subscriber tests:
// an initial_data snapshot on connect, then every event pushed to Send.
type fakeStreamServer struct {
	*httptest.Server

	mu      sync.Mutex
	initial []models.Activity
	events  chan Event
}

func newFakeStreamServer(t *testing.T, initial ...models.Activity) *fakeStreamServer {
	t.Helper()

	fs := &fakeStreamServer{
		initial: initial,
		events:  make(chan Event, 64),
	}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")

		fs.mu.Lock()
		snapshot := make([]models.Activity, len(fs.initial))
		copy(snapshot, fs.initial)
		fs.mu.Unlock()

		payload, err := NewInitialDataEvent(snapshot).Encode()
		require.NoError(t, err)
		_, _ = w.Write(payload)
		flusher.Flush()

		for {
			select {
			case event := <-fs.events:
				payload, err := event.Encode()
				require.NoError(t, err)
				if _, err := w.Write(payload); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeStreamServer) SetInitial(activities ...models.Activity) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.initial = activities
}

func (fs *fakeStreamServer) Send(event Event) {
	fs.events <- event
}

// waitFor polls until the condition holds or the test times out
func waitFor(t *testing.T, describe string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", describe)
}

func namedActivity(eventID string, ts time.Time) models.Activity {
	return models.Activity{
		ID:            "act-" + eventID,
		ProjectID:     "p1",
		GithubEventID: eventID,
		EventType:     models.EventPush,
		ActorUsername: "octocat",
		Summary:       "pushed to main",
		Timestamp:     ts,
	}
}

func TestSubscriberSnapshotThenNewActivity(t *testing.T) {
	now := time.Now().UTC()
	server := newFakeStreamServer(t,
		namedActivity("e2", now),
		namedActivity("e1", now.Add(-time.Minute)),
	)

	sub := NewSubscriber(server.URL)
	defer sub.Close()
	sub.Start()

	waitFor(t, "initial snapshot", func() bool { return sub.State().IsConnected })

	state := sub.State()
	require.Len(t, state.Data, 2)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "e2", state.Data[0].GithubEventID)

	server.Send(NewActivityEvent(namedActivity("e3", now.Add(time.Minute))))

	waitFor(t, "third record", func() bool { return len(sub.State().Data) == 3 })
	assert.Equal(t, "e3", sub.State().Data[0].GithubEventID, "newest first")
}

func TestSubscriberDedupesRedeliveredEvents(t *testing.T) {
	server := newFakeStreamServer(t, namedActivity("e1", time.Now().UTC()))

	sub := NewSubscriber(server.URL)
	defer sub.Close()
	sub.Start()

	waitFor(t, "initial snapshot", func() bool { return sub.State().IsConnected })

	// Same github_event_id delivered again: must not duplicate
	server.Send(NewActivityEvent(namedActivity("e1", time.Now().UTC())))
	server.Send(NewActivityEvent(namedActivity("e2", time.Now().UTC())))

	waitFor(t, "second record", func() bool { return len(sub.State().Data) == 2 })

	ids := []string{sub.State().Data[0].GithubEventID, sub.State().Data[1].GithubEventID}
	assert.ElementsMatch(t, []string{"e1", "e2"}, ids)
}

func TestSubscriberBufferCap(t *testing.T) {
	server := newFakeStreamServer(t)

	sub := NewSubscriber(server.URL)
	defer sub.Close()
	sub.Start()

	waitFor(t, "connection", func() bool { return sub.State().IsConnected })

	base := time.Now().UTC()
	for i := 0; i < 60; i++ {
		server.Send(NewActivityEvent(namedActivity(fmt.Sprintf("e%02d", i), base.Add(time.Duration(i)*time.Second))))
	}

	waitFor(t, "buffer to fill", func() bool {
		state := sub.State()
		return len(state.Data) == 50 && state.Data[0].GithubEventID == "e59"
	})

	// The 50 most recent survive; the 10 oldest were evicted
	state := sub.State()
	assert.Equal(t, "e59", state.Data[0].GithubEventID)
	assert.Equal(t, "e10", state.Data[49].GithubEventID)
}

func TestSubscriberBackoffExhaustion(t *testing.T) {
	// Server that always refuses the stream
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sub := NewSubscriber(server.URL, WithBackoff(Backoff{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}))
	defer sub.Close()
	sub.Start()

	waitFor(t, "terminal error state", func() bool { return sub.State().IsError })

	state := sub.State()
	assert.ErrorIs(t, state.Err, ErrReconnectExhausted)
	assert.False(t, state.IsConnected)
}

func TestSubscriberRefetchClearsTerminalError(t *testing.T) {
	var healthy bool
	var mu sync.Mutex

	events := make(chan Event)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := healthy
		mu.Unlock()
		if !ok {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := NewInitialDataEvent(nil).Encode()
		_, _ = w.Write(payload)
		flusher.Flush()
		select {
		case <-events:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	sub := NewSubscriber(server.URL, WithBackoff(Backoff{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}))
	defer sub.Close()
	sub.Start()

	waitFor(t, "terminal error", func() bool { return sub.State().IsError })

	// The server recovers; a manual refetch must reconnect despite exhaustion
	mu.Lock()
	healthy = true
	mu.Unlock()
	sub.Refetch()

	waitFor(t, "reconnect after refetch", func() bool {
		state := sub.State()
		return state.IsConnected && !state.IsError
	})
	close(events)
}

func TestSubscriberSuspendResume(t *testing.T) {
	now := time.Now().UTC()
	server := newFakeStreamServer(t, namedActivity("e1", now), namedActivity("e0", now.Add(-time.Hour)))

	sub := NewSubscriber(server.URL)
	defer sub.Close()
	sub.Start()

	waitFor(t, "initial snapshot", func() bool { return sub.State().IsConnected })
	require.Len(t, sub.State().Data, 2)

	// Tab goes hidden: transport closes, data stays, no error
	sub.Suspend()
	state := sub.State()
	assert.False(t, state.IsConnected)
	assert.False(t, state.IsError)
	assert.Len(t, state.Data, 2, "accumulated data stays visible while suspended")

	// The feed moved on while we were away
	server.SetInitial(namedActivity("e2", now.Add(time.Minute)), namedActivity("e1", now), namedActivity("e0", now.Add(-time.Hour)))

	// Tab visible again: immediate reconnect delivers a fresh snapshot
	sub.Resume()
	waitFor(t, "fresh snapshot after resume", func() bool {
		state := sub.State()
		return state.IsConnected && len(state.Data) == 3
	})
	assert.Equal(t, "e2", sub.State().Data[0].GithubEventID)
}

func TestSubscriberCloseCancelsPendingReconnect(t *testing.T) {
	// No listener at all: every connect fails fast
	sub := NewSubscriber("http://127.0.0.1:0/stream", WithBackoff(Backoff{
		MaxAttempts: 5,
		BaseDelay:   time.Hour, // Reconnect would hang for an hour if not cancelled
		MaxDelay:    time.Hour,
	}))
	sub.Start()

	// Let the first connect fail and the hour-long reconnect timer arm
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		sub.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a pending reconnect timer")
	}
}

func TestSubscriberOnChangeNotifications(t *testing.T) {
	server := newFakeStreamServer(t, namedActivity("e1", time.Now().UTC()))

	states := make(chan State, 16)
	sub := NewSubscriber(server.URL, WithOnChange(func(s State) {
		select {
		case states <- s:
		default:
		}
	}))
	defer sub.Close()
	sub.Start()

	select {
	case state := <-states:
		assert.True(t, state.IsConnected)
		assert.Len(t, state.Data, 1)
	case <-time.After(3 * time.Second):
		t.Fatal("no state notification after connect")
	}
}
