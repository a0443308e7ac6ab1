package stream

import (
	"errors"
	"sync"
)

var (
	// ErrConnectionClosed is returned when pushing to a closed connection
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when the connection's outbound buffer is
	// full. The registry treats this as a write failure: the subscriber is
	// too slow and gets evicted rather than stalling the broadcast.
	ErrSendBufferFull = errors.New("connection send buffer full")
)

// Connection is one live SSE channel. It is owned exclusively by the
// Registry from Register until Unregister; the serving handler only drains
// Out() and waits on Done().
type Connection struct {
	ID        string
	ProjectID string
	UserID    string

	out  chan []byte
	done chan struct{}

	closeOnce sync.Once

	// Registration sequence assigned by the registry, used to find the
	// oldest connection when a project bucket overflows.
	seq uint64
}

// NewConnection creates a connection with the given outbound buffer size
func NewConnection(id, projectID, userID string, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Connection{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		out:       make(chan []byte, bufferSize),
		done:      make(chan struct{}),
	}
}

// Push queues a payload for delivery without blocking. A full buffer or a
// closed connection is reported as an error so the caller can evict.
func (c *Connection) Push(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.out <- payload:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Out is the channel the serving handler drains to write to the transport
func (c *Connection) Out() <-chan []byte {
	return c.out
}

// Done is closed when the connection is torn down
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Safe to call multiple times; disconnect
// detection and broadcast failures can race.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
