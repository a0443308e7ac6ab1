package stream

import (
	"log"
	"sync"
)

// Registry tracks live SSE connections keyed by project. It is constructed
// once at bootstrap and injected into the handlers that need it; there is no
// package-level instance.
//
// The registry is strictly in-process. Running more than one server instance
// requires an external relay between webhook ingestion and the registries,
// which this design does not provide.
type Registry struct {
	mu      sync.Mutex
	buckets map[string]map[string]*Connection // projectID -> connID -> conn
	nextSeq uint64
	closed  bool

	// maxPerProject bounds a single project's bucket; the oldest connection
	// is evicted when a registration would exceed it. Zero means unlimited.
	maxPerProject int
}

// NewRegistry creates an empty registry. maxPerProject bounds the number of
// simultaneous subscribers per project (0 = unbounded).
func NewRegistry(maxPerProject int) *Registry {
	return &Registry{
		buckets:       make(map[string]map[string]*Connection),
		maxPerProject: maxPerProject,
	}
}

// Register adds a connection under its project bucket. If the bucket is at
// capacity the oldest registered connection is closed and evicted first.
// Registering against a closed registry closes the connection immediately.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		conn.Close()
		return
	}

	bucket, ok := r.buckets[conn.ProjectID]
	if !ok {
		bucket = make(map[string]*Connection)
		r.buckets[conn.ProjectID] = bucket
	}

	if r.maxPerProject > 0 && len(bucket) >= r.maxPerProject {
		if oldest := oldestConnection(bucket); oldest != nil {
			delete(bucket, oldest.ID)
			oldest.Close()
			log.Printf("stream: evicted oldest connection %s for project %s (bucket at capacity %d)",
				oldest.ID, conn.ProjectID, r.maxPerProject)
		}
	}

	r.nextSeq++
	conn.seq = r.nextSeq
	bucket[conn.ID] = conn
}

// Unregister removes a connection and closes it. Idempotent: disconnect
// detection races with broadcast write failures, and both paths call it.
func (r *Registry) Unregister(projectID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[projectID]
	if !ok {
		return
	}

	conn, ok := bucket[connID]
	if !ok {
		return
	}

	delete(bucket, connID)
	if len(bucket) == 0 {
		delete(r.buckets, projectID)
	}
	conn.Close()
}

// Broadcast pushes the event to every connection registered for the project.
// A push failure on one connection (full buffer, closed) evicts that
// connection without interrupting delivery to the others. Returns the number
// of successful and failed deliveries.
func (r *Registry) Broadcast(projectID string, event Event) (delivered, failed int) {
	payload, err := event.Encode()
	if err != nil {
		log.Printf("stream: dropping broadcast for project %s: %v", projectID, err)
		return 0, 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[projectID]
	if !ok {
		return 0, 0
	}

	for id, conn := range bucket {
		if err := conn.Push(payload); err != nil {
			delete(bucket, id)
			conn.Close()
			failed++
			log.Printf("stream: dropped connection %s for project %s: %v", id, projectID, err)
			continue
		}
		delivered++
	}

	if len(bucket) == 0 {
		delete(r.buckets, projectID)
	}
	return delivered, failed
}

// Count returns the number of live connections for a project
func (r *Registry) Count(projectID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets[projectID])
}

// Total returns the number of live connections across all projects
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, bucket := range r.buckets {
		total += len(bucket)
	}
	return total
}

// CloseAll tears down every connection and marks the registry closed.
// Called once at server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for projectID, bucket := range r.buckets {
		for _, conn := range bucket {
			conn.Close()
		}
		delete(r.buckets, projectID)
	}
	r.closed = true
}

func oldestConnection(bucket map[string]*Connection) *Connection {
	var oldest *Connection
	for _, conn := range bucket {
		if oldest == nil || conn.seq < oldest.seq {
			oldest = conn
		}
	}
	return oldest
}
