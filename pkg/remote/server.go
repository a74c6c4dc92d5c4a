// ABOUTME: WebSocket remote control server for a FourTrack engine
// ABOUTME: Accepts engine commands, pushes state and clips, serves saved clips
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/internal/discovery"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultPort is the default remote control port
	DefaultPort = 8928

	statePollInterval = 100 * time.Millisecond
)

// Controller is the engine surface driven by remote clients
type Controller interface {
	Record(setup fourtrack.TrackSetup) error
	Stop() (*fourtrack.Clip, error)
	Play(setup fourtrack.TrackSetup) error
	PreviewTrack(index int) error
	State() fourtrack.State
	Tracks() []fourtrack.TrackInfo
	Stats() fourtrack.Stats
}

// ServerConfig configures a remote control server
type ServerConfig struct {
	// Port to listen on (default: 8928)
	Port int

	// Name of the recorder for identification
	Name string

	// Engine to control (required)
	Controller Controller

	// EnableMDNS enables mDNS service advertisement
	EnableMDNS bool

	// ClipsDir is served under /clips/ when set
	ClipsDir string

	// Metrics is served under /metrics when set
	Metrics http.Handler

	// Debug enables debug logging
	Debug bool
}

// Server is a remote control server
type Server struct {
	config   ServerConfig
	serverID string

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client is a connected remote (internal)
type client struct {
	ID        string
	Name      string
	Conn      *websocket.Conn
	WantClips bool

	// Output channel for messages
	sendChan chan interface{}
	closed   bool
	mu       sync.Mutex
}

// ClientInfo represents information about a connected client
type ClientInfo struct {
	ID        string
	Name      string
	WantClips bool
}

// NewServer creates a new remote control server
func NewServer(config ServerConfig) (*Server, error) {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "FourTrack"
	}
	if config.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network tool: accept all origins
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}

	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	if config.ClipsDir != "" {
		s.mux.HandleFunc("GET /clips/{name}", s.handleClip)
	}
	if config.Metrics != nil {
		s.mux.Handle("/metrics", config.Metrics)
	}

	return s, nil
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	log.Printf("Remote control starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchState()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-s.stopChan:
		log.Printf("Remote control shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		s.Stop()
		s.shutdown()
		return err
	}

	s.shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()
	log.Printf("Remote control stopped cleanly")

	return nil
}

// shutdown rejects new connections and stops mDNS
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Clients returns information about all connected clients
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	clients := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, ClientInfo{
			ID:        c.ID,
			Name:      c.Name,
			WantClips: c.WantClips,
		})
	}
	return clients
}

// BroadcastClip announces a finished take to every client. Clients that
// asked for clips also receive the WAV bytes. url may be empty.
func (s *Server) BroadcastClip(clip *fourtrack.Clip, url string) {
	info := protocol.EngineClip{
		ID:         clip.ID,
		Filename:   clip.Filename(),
		Frames:     clip.Frames,
		SampleRate: clip.SampleRate,
		DurationMs: int(clip.Duration().Milliseconds()),
		Tracks:     clip.Tracks,
		Size:       len(clip.Data),
		URL:        url,
	}

	data, err := protocol.EncodeClipMessage(clip.ID, clip.Data)
	if err != nil {
		log.Printf("Failed to frame clip %s: %v", clip.ID, err)
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, protocol.TypeEngineClip, info); err != nil {
			log.Printf("Error sending clip info to %s: %v", c.Name, err)
			continue
		}
		if c.WantClips {
			if err := s.sendBinary(c, data); err != nil {
				log.Printf("Error sending clip to %s: %v", c.Name, err)
			}
		}
	}
}

// BroadcastState sends the current engine state to every client
func (s *Server) BroadcastState() {
	state := s.engineState()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, protocol.TypeEngineState, state); err != nil && s.config.Debug {
			log.Printf("Error sending state to %s: %v", c.Name, err)
		}
	}
}

// watchState pushes engine/state whenever the engine state changes on its own
func (s *Server) watchState() {
	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()

	last := s.config.Controller.State()
	for {
		select {
		case <-ticker.C:
			if current := s.config.Controller.State(); current != last {
				last = current
				s.BroadcastState()
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Server) engineState() protocol.EngineState {
	stats := s.config.Controller.Stats()
	state := protocol.EngineState{
		State:          s.config.Controller.State().String(),
		BlocksCaptured: stats.BlocksCaptured,
		BlocksDropped:  stats.BlocksDropped,
	}
	for _, info := range s.config.Controller.Tracks() {
		state.Tracks = append(state.Tracks, protocol.TrackState{
			Index:      info.Index,
			Loaded:     info.Loaded,
			Frames:     info.Frames,
			DurationMs: int(info.Duration.Milliseconds()),
		})
	}
	return state
}

// handleClip serves a saved clip by file name
func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".wav") {
		http.Error(w, "invalid clip name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.config.ClipsDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		log.Printf("Error decoding client hello: %v", err)
		return
	}

	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing required fields")
		return
	}

	log.Printf("Client hello: %s (ID: %s, clips: %v)", hello.Name, hello.ClientID, hello.WantClips)

	c := &client{
		ID:        hello.ClientID,
		Name:      hello.Name,
		Conn:      conn,
		WantClips: hello.WantClips,
		sendChan:  make(chan interface{}, 16),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", hello.ClientID)
		return
	}
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	defer func() {
		s.removeClient(c)
		log.Printf("Client disconnected: %s", c.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.Version,
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		Tracks:     fourtrack.NumTracks,
	}

	if err := s.sendMessage(c, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}
	s.sendMessage(c, protocol.TypeEngineState, s.engineState())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(c, data)
	}
}

// clientWriter sends messages to the client
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := c.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					continue
				}
				c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches an engine command
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if s.config.Debug {
		log.Printf("Command from %s: %s", c.Name, msg.Type)
	}

	var err error
	switch msg.Type {
	case protocol.TypeEngineRecord:
		var setup protocol.EngineSetup
		if err = protocol.DecodePayload(msg.Payload, &setup); err == nil {
			err = s.config.Controller.Record(trackSetup(setup))
		}
	case protocol.TypeEngineStop:
		_, err = s.config.Controller.Stop()
	case protocol.TypeEnginePlay:
		var setup protocol.EngineSetup
		if err = protocol.DecodePayload(msg.Payload, &setup); err == nil {
			err = s.config.Controller.Play(trackSetup(setup))
		}
	case protocol.TypeEnginePreview:
		var preview protocol.EnginePreview
		if err = protocol.DecodePayload(msg.Payload, &preview); err == nil {
			err = s.config.Controller.PreviewTrack(preview.Track)
		}
	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}

	if err != nil {
		log.Printf("Command %s from %s failed: %v", msg.Type, c.Name, err)
		s.sendMessage(c, protocol.TypeError, protocol.Error{Command: msg.Type, Message: err.Error()})
		return
	}

	s.BroadcastState()
}

// trackSetup converts wire flags to engine flags
func trackSetup(setup protocol.EngineSetup) fourtrack.TrackSetup {
	var result fourtrack.TrackSetup
	for i, flags := range setup.Tracks {
		result[i] = fourtrack.TrackFlags{
			Muted: flags.Muted,
			Mixed: flags.Mixed,
			Armed: flags.Armed,
		}
	}
	return result
}

// removeClient removes a client and stops its writer
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c.ID)
	s.clientsMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.sendChan)
	}
}

// closeClients closes every connection so readers return
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// sendMessage queues a JSON message to a client
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	return s.enqueue(c, protocol.Message{Type: msgType, Payload: payload})
}

// sendBinary queues binary data to a client
func (s *Server) sendBinary(c *client, data []byte) error {
	return s.enqueue(c, data)
}

func (s *Server) enqueue(c *client, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client disconnected")
	}

	select {
	case c.sendChan <- v:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
