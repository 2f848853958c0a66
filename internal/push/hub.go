package push

import "sync"

// Conn is the slice of a websocket connection the hub needs. Satisfied
// by *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// hubEntry pairs a connection with its own write lock. gorilla
// connections do not allow concurrent writers, but serializing writes
// per connection keeps one stalled client from holding up pushes to
// everyone else.
type hubEntry struct {
	mu   sync.Mutex
	conn Conn
}

// Hub maps live stream channel keys, (account, token) pairs, to their
// connections. One connection per key; registering over an existing key
// replaces it. The hub is shared across request goroutines: the hub
// mutex guards only the registry, network writes happen under the
// per-connection lock.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*hubEntry
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*hubEntry)}
}

// Register binds a connection to a channel key
func (h *Hub) Register(key string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[key] = &hubEntry{conn: conn}
}

// Unregister removes the binding for key, but only if it still points at
// conn; a replacement registered in the meantime stays.
func (h *Hub) Unregister(key string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.conns[key]; ok && entry.conn == conn {
		delete(h.conns, key)
	}
}

// Registered reports whether a connection is bound to key
func (h *Hub) Registered(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[key]
	return ok
}

// Send writes v as JSON to the connection bound to key. Fire-and-forget:
// no connection means the message is dropped, and a failed write closes
// and unregisters the connection. Reports whether the write succeeded.
func (h *Hub) Send(key string, v interface{}) bool {
	h.mu.Lock()
	entry, ok := h.conns[key]
	h.mu.Unlock()
	if !ok {
		return false
	}

	entry.mu.Lock()
	err := entry.conn.WriteJSON(v)
	entry.mu.Unlock()
	if err != nil {
		entry.conn.Close()
		h.mu.Lock()
		if current, ok := h.conns[key]; ok && current == entry {
			delete(h.conns, key)
		}
		h.mu.Unlock()
		return false
	}
	return true
}

// Drop closes and removes the connection bound to key, if any
func (h *Hub) Drop(key string) {
	h.mu.Lock()
	entry, ok := h.conns[key]
	if ok {
		delete(h.conns, key)
	}
	h.mu.Unlock()
	if ok {
		entry.conn.Close()
	}
}
