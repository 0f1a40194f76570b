// Package ui bridges the timeline to browser clients: a websocket that
// carries commands in and timeline events out, plus JSON snapshots.
package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/assistant"
	"tjweldon/beatmaker/src/capture"
	"tjweldon/beatmaker/src/presets"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("ui")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendQueue  = 256
)

// Asker answers chat messages
type Asker interface {
	Ask(ctx context.Context, text string) assistant.Reply
}

// Recorder is the microphone
type Recorder interface {
	Start() error
	Stop() (capture.Take, error)
	Recording() bool
}

// Server owns the connected clients. It is the timeline's Observer.
type Server struct {
	tl    *timeline.Timeline
	asker Asker
	rec   Recorder

	mu        sync.RWMutex
	clients   map[*client]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// NewServer attaches itself to tl as the observer. asker and rec may be
// nil, in which case chat answers offline and recording reports the
// microphone as unavailable.
func NewServer(tl *timeline.Timeline, asker Asker, rec Recorder) *Server {
	s := &Server{
		tl:        tl,
		asker:     asker,
		rec:       rec,
		clients:   make(map[*client]bool),
		broadcast: make(chan []byte, sendQueue),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	tl.SetObserver(s)
	return s
}

// Handler routes the websocket and the JSON endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/clips", s.handleClips)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	return mux
}

// Run fans events out to the clients until ctx ends
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for c := range s.clients {
				delete(s.clients, c)
				close(c.send)
			}
			s.mu.Unlock()
			return
		case msg := <-s.broadcast:
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- msg:
				default:
					// too slow to keep up
					delete(s.clients, c)
					close(c.send)
				}
			}
			s.mu.Unlock()
		}
	}
}

// ListenAndServe serves on addr and runs the hub until ctx ends
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Ctx("ListenAndServe").Log("listening on", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "ui server")
	}
	return nil
}

// publish queues an event for every client without ever blocking
func (s *Server) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Ctx("publish").Log(err)
		return
	}
	select {
	case s.broadcast <- data:
	default:
		logger.Ctx("publish").Vol(util.Quiet).Log("dropped", ev.Type)
	}
}

func (s *Server) ClipAdded(c timeline.ClipInfo) { s.publish(Event{Type: EventClipAdded, Clip: &c}) }
func (s *Server) ClipRemoved(id timeline.ClipID) { s.publish(Event{Type: EventClipRemoved, ID: id}) }
func (s *Server) ClipMoved(c timeline.ClipInfo) { s.publish(Event{Type: EventClipMoved, Clip: &c}) }

func (s *Server) Position(fraction float64, elapsed string) {
	s.publish(Event{Type: EventPosition, Fraction: fraction, Elapsed: elapsed})
}

// State is the full picture a freshly connected client starts from
type State struct {
	State     string              `json:"state"`
	Fraction  float64             `json:"fraction"`
	Elapsed   string              `json:"elapsed"`
	Rate      float64             `json:"rate"`
	Master    float64             `json:"master"`
	Voices    int                 `json:"voices"`
	Recording bool                `json:"recording"`
	Clips     []timeline.ClipInfo `json:"clips"`
}

func (s *Server) snapshot() State {
	fraction, elapsed := s.tl.Position()
	return State{
		State:     s.tl.State().String(),
		Fraction:  fraction,
		Elapsed:   timeline.FormatElapsed(elapsed),
		Rate:      s.tl.PlaybackRate(),
		Master:    s.tl.MasterGain(),
		Voices:    s.tl.ActiveVoices(),
		Recording: s.rec != nil && s.rec.Recording(),
		Clips:     s.tl.Clips(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Ctx("writeJSON").Log(err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *Server) handleClips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tl.Clips())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Instruments []string `json:"instruments"`
		Presets     []string `json:"presets"`
	}{
		Instruments: util.Map(synth.Kind.String, synth.Kinds()),
		Presets:     presets.Names(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx("handleWebSocket").Log("upgrade:", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue), server: s}

	// The hub cannot deliver while s.mu is held, so every event published
	// from here on reaches c after the snapshot. Events already queued may
	// repeat what the snapshot shows; clients apply them by clip id.
	s.mu.Lock()
	if data, err := json.Marshal(Event{Type: EventState, State: ptr(s.snapshot())}); err == nil {
		c.send <- data
	}
	s.clients[c] = true
	s.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func ptr[T any](v T) *T { return &v }

// remove forgets c once, however many pumps notice it went away
func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

// reply sends an event to c alone
func (c *client) reply(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.server.mu.RLock()
	defer c.server.mu.RUnlock()
	if !c.server.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.server.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Ctx("readPump").Vol(util.Quiet).Log(err)
			}
			return
		}
		// the assistant can take a while, so chat does not hold up the socket
		if cmd.Type == CmdChat {
			go c.handle(cmd)
			continue
		}
		c.handle(cmd)
	}
}

func (c *client) handle(cmd Command) {
	if err := c.server.Handle(context.Background(), cmd, c.reply); err != nil {
		c.reply(Event{Type: EventNotice, Text: err.Error()})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
