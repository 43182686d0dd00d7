// Package websocket fans activity events out to connected frontend clients,
// grouped by organization.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
)

type BroadcastMessage struct {
	OrgID   string
	Message []byte
}

type Client struct {
	OrgID string
	Conn  *gws.Conn
	Send  chan []byte
	hub   *Hub
}

type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex
}

var defaultHub = &Hub{
	clients:    make(map[string]map[*Client]bool),
	broadcast:  make(chan BroadcastMessage),
	register:   make(chan *Client),
	unregister: make(chan *Client),
}

// GetHub returns the process-wide hub.
func GetHub() *Hub {
	return defaultHub
}

func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			if _, ok := h.clients[client.OrgID]; !ok {
				h.clients[client.OrgID] = make(map[*Client]bool)
			}
			h.clients[client.OrgID][client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if clients, ok := h.clients[client.OrgID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.OrgID)
					}
				}
			}
			h.mutex.Unlock()

		case bm := <-h.broadcast:
			h.mutex.Lock()
			if clients, ok := h.clients[bm.OrgID]; ok {
				for client := range clients {
					select {
					case client.Send <- bm.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mutex.Unlock()
		}
	}
}

// NewClient registers a connection with the hub and returns the client.
func (h *Hub) NewClient(orgID string, conn *gws.Conn) *Client {
	c := &Client{
		OrgID: orgID,
		Conn:  conn,
		Send:  make(chan []byte, 64),
		hub:   h,
	}
	h.register <- c
	return c
}

// Broadcast marshals payload and delivers it to every client of the org.
func (h *Hub) Broadcast(orgID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("websocket: marshal broadcast: %v", err)
		return
	}
	h.broadcast <- BroadcastMessage{OrgID: orgID, Message: data}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WritePump pushes queued messages to the peer and keeps it alive with pings.
// Runs as a goroutine per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(gws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(gws.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(gws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains the connection until the peer goes away, then unregisters.
// Clients never send application data; reads only service control frames.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
