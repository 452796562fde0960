// Package ws is a speech driver backed by a remote client, typically a browser
// page using the Web Speech API, connected over a websocket. The most recently
// connected client owns the speaker.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/readaloud/internal/speech"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	supported bool
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) enqueue(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return speech.ErrNoClient
	default:
		return speech.ErrBusy
	}
}

// Driver implements speech.Driver and speech.IdleNotifier. It is also an
// http.Handler that accepts the client's websocket.
type Driver struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	client     *client
	seq        uint64
	current    uint64
	text       []rune
	playing    bool
	paused     bool
	onEnd      func()
	onBoundary func(int)
	idle       func()
}

func New(log *slog.Logger) *Driver {
	return &Driver{
		log: log.With("component", "speech", "driver", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Supported is always true: capability is negotiated per client and an
// incapable client makes Speak fail instead.
func (d *Driver) Supported() bool { return true }

// Connected reports whether a speech client is attached.
func (d *Driver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client != nil
}

func (d *Driver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		supported: true,
	}
	d.attach(c)
	go d.writePump(c)
	d.readPump(c)
}

// attach makes c the active client. An utterance playing on the previous
// client is lost, which the reader sees as an external stop.
func (d *Driver) attach(c *client) {
	d.mu.Lock()
	old := d.client
	d.client = c
	idle := d.dropUtteranceLocked()
	d.mu.Unlock()

	if old != nil {
		old.close()
	}
	d.log.Info("speech client connected", "remote", c.conn.RemoteAddr().String())
	if idle != nil {
		idle()
	}
}

func (d *Driver) detach(c *client) {
	d.mu.Lock()
	var idle func()
	if d.client == c {
		d.client = nil
		idle = d.dropUtteranceLocked()
	}
	d.mu.Unlock()

	c.close()
	d.log.Info("speech client disconnected")
	if idle != nil {
		idle()
	}
}

// dropUtteranceLocked forgets the current utterance and returns the idle
// handler if one was playing.
func (d *Driver) dropUtteranceLocked() func() {
	wasPlaying := d.current != 0
	d.current = 0
	d.playing = false
	d.paused = false
	d.onEnd, d.onBoundary = nil, nil
	if wasPlaying {
		return d.idle
	}
	return nil
}

func (d *Driver) readPump(c *client) {
	defer d.detach(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.log.Warn("speech client read failed", "error", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			d.log.Warn("invalid speech client message", "error", err)
			continue
		}
		d.handle(c, msg)
	}
}

func (d *Driver) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (d *Driver) handle(c *client, msg Message) {
	switch msg.Type {
	case TypeHello:
		if msg.Supported != nil {
			d.mu.Lock()
			c.supported = *msg.Supported
			d.mu.Unlock()
		}

	case TypeBoundary:
		d.mu.Lock()
		if c != d.client || msg.ID == 0 || msg.ID != d.current {
			d.mu.Unlock()
			return
		}
		idx := runeIndex(d.text, msg.CharIndex)
		cb := d.onBoundary
		d.mu.Unlock()
		if cb != nil {
			cb(idx)
		}

	case TypeEnd:
		d.mu.Lock()
		if c != d.client || msg.ID == 0 || msg.ID != d.current {
			d.mu.Unlock()
			return
		}
		cb := d.onEnd
		d.current = 0
		d.playing = false
		d.paused = false
		d.onEnd, d.onBoundary = nil, nil
		d.mu.Unlock()
		if cb != nil {
			cb()
		}

	case TypeStopped, TypeError:
		if msg.Type == TypeError {
			d.log.Warn("speech client error", "id", msg.ID, "error", msg.Error)
		}
		d.mu.Lock()
		var idle func()
		if c == d.client && (msg.ID == 0 || msg.ID == d.current) {
			idle = d.dropUtteranceLocked()
		}
		d.mu.Unlock()
		if idle != nil {
			idle()
		}

	default:
		d.log.Debug("ignoring speech client message", "type", msg.Type)
	}
}

func (d *Driver) Speak(text string, onEnd func(), onBoundary func(int)) error {
	if strings.TrimSpace(text) == "" {
		return speech.ErrEmptyText
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return speech.ErrNoClient
	}
	if !d.client.supported {
		return speech.ErrUnsupported
	}

	d.seq++
	id := d.seq
	data, err := json.Marshal(Message{Type: TypeSpeak, ID: id, Text: text})
	if err != nil {
		return err
	}
	if err := d.client.enqueue(data); err != nil {
		return err
	}

	d.current = id
	d.text = []rune(text)
	d.playing = true
	d.paused = false
	d.onEnd = onEnd
	d.onBoundary = onBoundary
	return nil
}

func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing || d.paused {
		return
	}
	d.paused = true
	d.sendLocked(TypePause)
}

func (d *Driver) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		return
	}
	d.paused = false
	d.sendLocked(TypeResume)
}

func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendLocked(TypeStop)
	d.current = 0
	d.playing = false
	d.paused = false
	d.onEnd, d.onBoundary = nil, nil
}

func (d *Driver) sendLocked(kind string) {
	if d.client == nil {
		return
	}
	data, _ := json.Marshal(Message{Type: kind, ID: d.current})
	if err := d.client.enqueue(data); err != nil {
		d.log.Warn("speech command dropped", "type", kind, "error", err)
	}
}

func (d *Driver) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

func (d *Driver) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Driver) SetIdleHandler(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idle = fn
}

// Publish forwards an arbitrary JSON value, such as a reader event, to the
// connected client. It is a no-op without a client.
func (d *Driver) Publish(v any) {
	d.mu.Lock()
	c := d.client
	d.mu.Unlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		d.log.Warn("publish marshal failed", "error", err)
		return
	}
	if err := c.enqueue(data); err != nil {
		d.log.Debug("publish dropped", "error", err)
	}
}
