package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
)

// ErrReconnectExhausted is the terminal error set on the subscriber state
// once every backoff attempt has failed. Refetch clears it.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// State is a point-in-time snapshot of a subscription's view of the feed.
// Data is newest-first, deduplicated on github_event_id, and capped.
type State struct {
	Data        []models.Activity
	IsConnected bool
	IsLoading   bool
	IsError     bool
	Err         error
}

// SubscriberOption configures a Subscriber
type SubscriberOption func(*Subscriber)

// WithHTTPClient sets the HTTP client used to open the stream
func WithHTTPClient(client *http.Client) SubscriberOption {
	return func(s *Subscriber) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLimit caps the number of records held in the live view
func WithLimit(limit int) SubscriberOption {
	return func(s *Subscriber) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithBackoff overrides the reconnect schedule
func WithBackoff(b Backoff) SubscriberOption {
	return func(s *Subscriber) {
		s.backoff = b
	}
}

// WithOnChange registers a callback invoked with a state snapshot after
// every transition. The callback runs on the subscriber's goroutine and
// must not call back into the subscriber.
func WithOnChange(fn func(State)) SubscriberOption {
	return func(s *Subscriber) {
		s.onChange = fn
	}
}

// Subscriber maintains a live, deduplicated, order-preserving view of one
// project's recent activity over an SSE stream. It reconnects with
// exponential backoff on transport failures, can be suspended while the
// consumer is not watching (tab hidden), and resumes immediately without
// backoff on an intentional Resume.
type Subscriber struct {
	url        string
	httpClient *http.Client
	limit      int
	onChange   func(State)

	mu        sync.Mutex
	state     State
	backoff   Backoff
	suspended bool
	closed    bool

	// gen invalidates goroutines and timers from superseded connections
	gen        int
	cancel     context.CancelFunc
	retryTimer *time.Timer

	wg sync.WaitGroup
}

// NewSubscriber creates a subscriber for the given stream URL. Call Start
// to open the connection and Close to tear everything down.
func NewSubscriber(url string, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:        url,
		httpClient: http.DefaultClient,
		limit:      DefaultFeedLimit,
		backoff:    NewBackoff(),
		state:      State{IsLoading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultFeedLimit caps the client-visible live buffer
const DefaultFeedLimit = 50

// Start opens the stream. No-op if the subscriber is closed.
func (s *Subscriber) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.cancel != nil {
		return
	}
	s.connectLocked()
}

// State returns a snapshot of the current subscription state. The Data
// slice is copied; callers may retain it.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Refetch force-reconnects regardless of current state, clearing any
// terminal error and resetting the backoff schedule.
func (s *Subscriber) Refetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.teardownTransportLocked()
	s.backoff.Reset()
	s.state.IsError = false
	s.state.Err = nil
	s.state.IsLoading = true
	s.connectLocked()
}

// Suspend proactively closes the transport without entering an error
// state. Mirrors the browser hiding the tab: resources are freed, the
// accumulated data stays visible.
func (s *Subscriber) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.suspended {
		return
	}

	s.suspended = true
	s.teardownTransportLocked()
	s.state.IsConnected = false
	s.notifyLocked()
}

// Resume reverses Suspend. If the transport is not already open it
// reconnects immediately, bypassing backoff: this is a user-intentional
// resumption, not a failure.
func (s *Subscriber) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.suspended {
		return
	}

	s.suspended = false
	if s.cancel == nil {
		s.backoff.Reset()
		s.connectLocked()
	}
}

// Close tears down the transport and cancels any pending reconnect timer.
// No goroutines or timers remain after Close returns.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.teardownTransportLocked()
	s.state.IsConnected = false
	s.mu.Unlock()

	s.wg.Wait()
}

// teardownTransportLocked cancels the live transport and any pending
// reconnect, and invalidates outstanding goroutines via the generation.
func (s *Subscriber) teardownTransportLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

// connectLocked starts a new transport goroutine under the current generation
func (s *Subscriber) connectLocked() {
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.consume(ctx, gen)
		s.handleDisconnect(gen, err)
	}()
}

// consume opens the stream and relays events until the transport fails or
// the context is cancelled.
func (s *Subscriber) consume(ctx context.Context, gen int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream request rejected: HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()

		switch {
		case len(line) == 0:
			// Blank line terminates one SSE message
			if data.Len() > 0 {
				s.dispatch(gen, data.Bytes())
				data.Reset()
			}
		case bytes.HasPrefix(line, []byte("data:")):
			data.Write(bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" ")))
		default:
			// Comments and other SSE fields are ignored
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

// dispatch applies one decoded stream message to the local view
func (s *Subscriber) dispatch(gen int, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		// A malformed frame is not a transport failure; skip it
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}

	switch event.Type {
	case EventTypeInitialData:
		// Wholesale replacement; also marks the (re)connect as successful
		data := event.Activities
		if len(data) > s.limit {
			data = data[:s.limit]
		}
		s.state.Data = data
		s.state.IsConnected = true
		s.state.IsLoading = false
		s.state.IsError = false
		s.state.Err = nil
		s.backoff.Reset()
		s.notifyLocked()

	case EventTypeNewActivity:
		if event.Activity == nil {
			return
		}
		if s.hasEventLocked(event.Activity.GithubEventID) {
			return // Redelivery or broadcast race; already visible
		}
		s.state.Data = append([]models.Activity{*event.Activity}, s.state.Data...)
		if len(s.state.Data) > s.limit {
			s.state.Data = s.state.Data[:s.limit]
		}
		s.notifyLocked()

	case EventTypeConnection:
		// Liveness ping; nothing to apply
	}
}

// handleDisconnect schedules a reconnect attempt, or surfaces the terminal
// error state once the backoff schedule is exhausted.
func (s *Subscriber) handleDisconnect(gen int, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.suspended || gen != s.gen {
		// Intentional teardown, or a newer connection superseded this one
		return
	}

	s.cancel = nil
	s.state.IsConnected = false

	delay, ok := s.backoff.Next()
	if !ok {
		s.state.IsError = true
		if cause == nil {
			cause = errors.New("transport failure")
		}
		s.state.Err = fmt.Errorf("%w: %v", ErrReconnectExhausted, cause)
		s.state.IsLoading = false
		s.notifyLocked()
		return
	}

	s.notifyLocked()
	s.retryTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.suspended || gen != s.gen {
			return
		}
		s.retryTimer = nil
		s.connectLocked()
	})
}

func (s *Subscriber) hasEventLocked(githubEventID string) bool {
	for _, a := range s.state.Data {
		if a.GithubEventID == githubEventID {
			return true
		}
	}
	return false
}

func (s *Subscriber) snapshotLocked() State {
	snapshot := s.state
	snapshot.Data = make([]models.Activity, len(s.state.Data))
	copy(snapshot.Data, s.state.Data)
	return snapshot
}

func (s *Subscriber) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}
