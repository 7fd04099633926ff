package preview

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	RefreshMessage = "refresh"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan string
	done chan struct{}
	once sync.Once
}

func (c *client) close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Hub fans messages out to every connected preview page.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (me *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan string, 8), done: make(chan struct{})}
	me.register(c)

	logger := zerolog.Ctx(r.Context()).With().Str("ws_client", c.id).Str("remote", r.RemoteAddr).Logger()
	logger.Debug().Msg("preview client connected")

	go me.writeLoop(c)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	me.unregister(c)
	_ = c.close()
	logger.Debug().Msg("preview client disconnected")
}

func (me *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				me.drop(c)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				me.drop(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				me.drop(c)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				me.drop(c)
				return
			}
		}
	}
}

func (me *Hub) register(c *client) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.clients[c] = struct{}{}
}

func (me *Hub) unregister(c *client) {
	me.mu.Lock()
	defer me.mu.Unlock()
	delete(me.clients, c)
}

func (me *Hub) drop(c *client) {
	me.unregister(c)
	_ = c.close()
}

// Broadcast queues msg for every client connected right now and returns how
// many received it. Clients that have gone away or stopped draining are dropped.
func (me *Hub) Broadcast(msg string) int {
	me.mu.Lock()
	targets := make([]*client, 0, len(me.clients))
	for c := range me.clients {
		targets = append(targets, c)
	}
	me.mu.Unlock()

	sent := 0
	for _, c := range targets {
		select {
		case <-c.done:
			me.unregister(c)
		case c.send <- msg:
			sent++
		default:
			me.drop(c)
		}
	}
	return sent
}

func (me *Hub) Len() int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return len(me.clients)
}

// Close disconnects every client.
func (me *Hub) Close() error {
	me.mu.Lock()
	targets := me.clients
	me.clients = make(map[*client]struct{})
	me.mu.Unlock()

	var err error
	for c := range targets {
		err = multierr.Append(err, c.close())
	}
	return err
}
