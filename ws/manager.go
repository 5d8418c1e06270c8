package ws

import (
	"encoding/json"
	"sync"
	"time"

	"articles-server/usecases"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second

	// sendBuffer is how many events a subscriber may fall behind before it is dropped.
	sendBuffer = 64
)

// Conn is the subset of *websocket.Conn the manager writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type subscriber struct {
	conn Conn
	send chan []byte
	done chan struct{}
}

// Manager keeps track of browsers subscribed to the article feed. Each
// subscriber has its own writer goroutine; Publish only enqueues.
type Manager struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber // connection id -> subscriber
	wg          sync.WaitGroup
	log         *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{subscribers: make(map[string]*subscriber), log: log}
}

// Register adds a connection, replacing any existing one with the same id.
func (m *Manager) Register(id string, conn Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	if old, ok := m.subscribers[id]; ok {
		m.removeLocked(id, old)
	}
	m.subscribers[id] = sub
	m.wg.Add(1)
	m.mu.Unlock()

	go m.writePump(id, sub)
}

// Unregister removes a connection. Its writer closes it.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscribers[id]; ok {
		m.removeLocked(id, sub)
	}
}

// Publish queues an article event for every subscriber. A subscriber
// whose queue is full is dropped instead of stalling the caller.
func (m *Manager) Publish(event usecases.ArticleEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.log.Error("marshal article event", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subscribers {
		select {
		case sub.send <- payload:
		default:
			m.log.Debug("dropping slow feed subscriber", zap.String("conn_id", id))
			m.removeLocked(id, sub)
		}
	}
}

// Count returns the number of live subscribers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Close drops every subscriber and waits for their writers to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	for id, sub := range m.subscribers {
		m.removeLocked(id, sub)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) removeLocked(id string, sub *subscriber) {
	if m.subscribers[id] != sub {
		return
	}
	delete(m.subscribers, id)
	close(sub.done)
}

func (m *Manager) remove(id string, sub *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id, sub)
}

// writePump is the only goroutine that writes to sub.conn.
func (m *Manager) writePump(id string, sub *subscriber) {
	defer m.wg.Done()
	defer sub.conn.Close()

	for {
		select {
		case <-sub.done:
			return
		case payload := <-sub.send:
			select {
			case <-sub.done:
				return
			default:
			}
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				m.log.Debug("dropping feed subscriber", zap.String("conn_id", id), zap.Error(err))
				m.remove(id, sub)
				return
			}
		}
	}
}
