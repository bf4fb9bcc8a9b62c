// Package server coordinates client registration, connection cleanup, and
// graceful shutdown for the NeonChat WebSocket service via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neonchat/neonchat/internal/chat"
)

// Hub is the owning table of all live client connections. It registers and
// unregisters clients, launches their pump goroutines, and closes each send
// queue exactly once. Room membership and broadcast fan-out live in the chat
// registry; the hub only owns connection lifetime.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	registry   *chat.Registry
	cfg        Config
	log        *zap.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub bound to the given chat registry and configuration.
// The returned Hub is ready to manage WebSocket connections once Run is
// started.
func NewHub(registry *chat.Registry, cfg Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   registry,
		cfg:        cfg,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry returns the chat registry this hub's clients join.
func (h *Hub) Registry() *chat.Registry {
	return h.registry
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// safeSend pushes a payload onto a client's send queue without blocking.
// It reports false when the client is unregistered, closed, or its queue is
// full. The registration check and the push share the read lock, so a send
// can never race the close of the queue.
func (h *Hub) safeSend(client *Client, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. This method should be called in a separate goroutine as it
// runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("nil client registration, skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("client registered",
				zap.String("addr", client.addr),
				zap.Int("clients", clientCount))

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				// Close the queue after releasing the lock; the write pump
				// drains what is buffered, then sends the close frame.
				close(client.send)
				h.log.Info("client unregistered",
					zap.String("addr", client.addr),
					zap.Int("clients", clientCount))
			} else {
				h.mutex.Unlock()
			}
		}
	}
}

// shutdownClients closes all active client connections.
func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					h.log.Warn("closing client connection failed",
						zap.String("addr", client.addr), zap.Error(err))
				}
			}
		}
	}

	h.log.Info("closed client connections", zap.Int("count", len(clients)))
}

// Shutdown initiates graceful shutdown of the hub and waits for all pump
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("shutting down hub")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
