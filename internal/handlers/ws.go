package handlers

import (
	"context"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// wsClient serializes writes; gorilla connections allow one writer at a time.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return fn()
}

func (c *wsClient) writeJSON(v any) error {
	return c.write(func() error { return c.conn.WriteJSON(v) })
}

// ProjectAccess reports whether a user owns a project. A missing project is
// an error, not false.
type ProjectAccess interface {
	CheckOwnership(ctx context.Context, projectID, ownerID string) (bool, error)
}

// Hub tracks websocket subscribers per project and tells them to refetch
// after a change. Only a project's owner may subscribe to it.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*wsClient]bool
	access   ProjectAccess
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string, access ProjectAccess) *Hub {
	origins := slices.Clone(allowedOrigins)

	return &Hub{
		clients: make(map[string]map[*wsClient]bool),
		access:  access,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(origins, r.Header.Get("Origin"))
			},
		},
	}
}

// ProjectChanged broadcasts in the background so that a slow subscriber never
// delays the request that made the change.
func (h *Hub) ProjectChanged(projectID string) {
	go h.BroadcastRefresh(projectID)
}

func (h *Hub) BroadcastRefresh(projectID string) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients[projectID]))
	for c := range h.clients[projectID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		err := c.writeJSON(map[string]string{
			"type":       "refresh",
			"message":    "Project data updated",
			"project_id": projectID,
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			h.unregister(projectID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) Subscribers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

func (h *Hub) register(projectID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*wsClient]bool)
	}
	h.clients[projectID][c] = true
}

func (h *Hub) unregister(projectID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[projectID]; exists {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

func (h *Hub) Serve(c *gin.Context) {
	projectID := c.Param("project_id")

	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	userID, err := utils.GetCurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	owns, err := h.access.CheckOwnership(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !owns {
		respondError(c, apperrors.NewUnauthorized("subscribe to", "project", userID))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.register(projectID, client)

	done := make(chan struct{})
	defer func() {
		close(done)
		h.unregister(projectID, client)
		conn.Close()

		log.Printf("WebSocket connection closed for project %s", projectID)
	}()

	err = client.writeJSON(map[string]string{
		"type":       "connected",
		"message":    "WebSocket connection established",
		"project_id": projectID,
	})
	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				err := client.write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) })
				if err != nil {
					log.Printf("Ping failed for project %s: %v", projectID, err)
					return
				}
			}
		}
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for project %s: %v", projectID, err)
			}
			break
		}

		if messageType == websocket.TextMessage {
			log.Printf("Received message from client in project %s: %s", projectID, string(message))
		}
	}
}
