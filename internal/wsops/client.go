package wsops

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	clientSendBufferSize = 128
)

// originChecker restricts upgrade requests the way the teacher's hub does,
// defaulting to allow-all outside a configured origin list since this is an
// operator-facing push channel, not a public endpoint.
type originChecker struct {
	allowedOrigins map[string]struct{}
	allowAll       bool
}

var checker = newOriginChecker()

func newOriginChecker() *originChecker {
	oc := &originChecker{allowedOrigins: make(map[string]struct{})}

	env := os.Getenv("WSOPS_ALLOWED_ORIGINS")
	if env == "" || env == "*" {
		oc.allowAll = true
		return oc
	}
	oc.allowAll = false
	for _, origin := range strings.Split(env, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			oc.allowedOrigins[origin] = struct{}{}
		}
	}
	return oc
}

func (oc *originChecker) check(origin string) bool {
	if origin == "" || oc.allowAll {
		return true
	}
	_, ok := oc.allowedOrigins[origin]
	return ok
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return checker.check(r.Header.Get("Origin")) },
}

// Client is one connected WebSocket subscriber. It never reads anything
// meaningful from the connection: this is a push-only channel.
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request and registers a new Client with hub.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsops: upgrade error: %v", err)
		return
	}

	client := &Client{conn: conn, hub: hub, send: make(chan []byte, clientSendBufferSize)}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
