// ABOUTME: WebSocket client for FourTrack remote control
// ABOUTME: Handles connection, handshake, commands and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Path is the WebSocket endpoint served by a recorder
const Path = "/fourtrack"

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	WantClips  bool
}

// Clip is an encoded take pushed by the server
type Clip struct {
	ID   string
	Data []byte // WAV bytes
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	hello  ServerHello

	// Message channels
	States    chan EngineState
	ClipInfos chan EngineClip
	Clips     chan Clip
	Errors    chan Error

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:    config,
		States:    make(chan EngineState, 10),
		ClipInfos: make(chan EngineClip, 10),
		Clips:     make(chan Clip, 4),
		Errors:    make(chan Error, 10),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:  c.config.ClientID,
		Name:      c.config.Name,
		Version:   Version,
		WantClips: c.config.WantClips,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var serverMsg Message
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	if serverMsg.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", serverMsg.Type)
	}

	var serverHello ServerHello
	if err := DecodePayload(serverMsg.Payload, &serverHello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.mu.Lock()
	c.hello = serverHello
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (%d tracks, %dHz)",
		serverHello.Name, serverHello.Tracks, serverHello.SampleRate)
	return nil
}

// Server returns the server/hello received during the handshake
func (c *Client) Server() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	// Write lock: gorilla connections allow one concurrent writer
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error: %v", err)
			return
		}

		if messageType == websocket.BinaryMessage {
			c.handleBinaryMessage(data)
		} else if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		} else {
			log.Printf("Unknown WebSocket message type: %d", messageType)
		}
	}
}

// handleBinaryMessage handles pushed clips
func (c *Client) handleBinaryMessage(data []byte) {
	id, wav, err := DecodeClipMessage(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}

	select {
	case c.Clips <- Clip{ID: id, Data: wav}:
	case <-c.ctx.Done():
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case TypeEngineState:
		var state EngineState
		if err := DecodePayload(msg.Payload, &state); err != nil {
			log.Printf("Failed to parse engine/state: %v", err)
			return
		}
		select {
		case c.States <- state:
		case <-time.After(100 * time.Millisecond):
			log.Printf("State channel full, dropping message")
		}

	case TypeEngineClip:
		var info EngineClip
		if err := DecodePayload(msg.Payload, &info); err != nil {
			log.Printf("Failed to parse engine/clip: %v", err)
			return
		}
		select {
		case c.ClipInfos <- info:
		case <-c.ctx.Done():
		}

	case TypeError:
		var e Error
		if err := DecodePayload(msg.Payload, &e); err != nil {
			log.Printf("Failed to parse error: %v", err)
			return
		}
		log.Printf("Server rejected %s: %s", e.Command, e.Message)
		select {
		case c.Errors <- e:
		case <-time.After(100 * time.Millisecond):
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Record sends engine/record
func (c *Client) Record(setup EngineSetup) error {
	return c.sendJSON(Message{Type: TypeEngineRecord, Payload: setup})
}

// Stop sends engine/stop
func (c *Client) Stop() error {
	return c.sendJSON(Message{Type: TypeEngineStop, Payload: struct{}{}})
}

// Play sends engine/play
func (c *Client) Play(setup EngineSetup) error {
	return c.sendJSON(Message{Type: TypeEnginePlay, Payload: setup})
}

// Preview sends engine/preview for a 0-based track index
func (c *Client) Preview(track int) error {
	return c.sendJSON(Message{Type: TypeEnginePreview, Payload: EnginePreview{Track: track}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// Done is closed once the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
