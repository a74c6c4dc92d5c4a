// ABOUTME: FourTrack remote control message type definitions
// ABOUTME: Defines structs for the JSON and binary messages of the /fourtrack endpoint
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Version is the remote control protocol version
const Version = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeEngineRecord  = "engine/record"
	TypeEngineStop    = "engine/stop"
	TypeEnginePlay    = "engine/play"
	TypeEnginePreview = "engine/preview"
	TypeEngineState   = "engine/state"
	TypeEngineClip    = "engine/clip"
	TypeError         = "error"
)

const (
	// ClipMessageType is the binary message type ID for encoded clips
	ClipMessageType = 1

	// BinaryMessageHeaderSize is 1 type byte + 16 byte clip ID
	BinaryMessageHeaderSize = 1 + 16
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	// WantClips asks the server to push encoded clips as binary messages
	WantClips bool `json:"want_clips"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string `json:"server_id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
	Tracks     int    `json:"tracks"`
}

// TrackFlags are the per-track switches carried by engine/record and engine/play
type TrackFlags struct {
	Muted bool `json:"muted"`
	Mixed bool `json:"mixed"`
	Armed bool `json:"armed"`
}

// EngineSetup is the payload of engine/record and engine/play
type EngineSetup struct {
	Tracks [4]TrackFlags `json:"tracks"`
}

// EnginePreview is the payload of engine/preview
type EnginePreview struct {
	Track int `json:"track"` // 0-3
}

// TrackState describes one track slot
type TrackState struct {
	Index      int  `json:"index"`
	Loaded     bool `json:"loaded"`
	Frames     int  `json:"frames"`
	DurationMs int  `json:"duration_ms"`
}

// EngineState is sent as engine/state after every state change
type EngineState struct {
	State          string       `json:"state"` // "idle", "recording" or "playing"
	Tracks         []TrackState `json:"tracks"`
	BlocksCaptured int64        `json:"blocks_captured"`
	BlocksDropped  int64        `json:"blocks_dropped"`
}

// EngineClip announces a finished take
type EngineClip struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Frames     int    `json:"frames"`
	SampleRate int    `json:"sample_rate"`
	DurationMs int    `json:"duration_ms"`
	Tracks     []int  `json:"tracks"`
	Size       int    `json:"size"`
	URL        string `json:"url,omitempty"` // set when the clip was saved
}

// Error reports a rejected command
type Error struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// DecodePayload re-decodes a generic payload into a typed struct
func DecodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// EncodeClipMessage frames WAV bytes as a binary clip message
func EncodeClipMessage(id string, wav []byte) ([]byte, error) {
	clipID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid clip id %q: %w", id, err)
	}

	msg := make([]byte, BinaryMessageHeaderSize+len(wav))
	msg[0] = ClipMessageType
	copy(msg[1:BinaryMessageHeaderSize], clipID[:])
	copy(msg[BinaryMessageHeaderSize:], wav)
	return msg, nil
}

// DecodeClipMessage splits a binary clip message into its ID and WAV bytes
func DecodeClipMessage(data []byte) (string, []byte, error) {
	if len(data) < BinaryMessageHeaderSize {
		return "", nil, fmt.Errorf("binary message too short: %d bytes", len(data))
	}
	if data[0] != ClipMessageType {
		return "", nil, fmt.Errorf("unknown binary message type: %d", data[0])
	}

	clipID, err := uuid.FromBytes(data[1:BinaryMessageHeaderSize])
	if err != nil {
		return "", nil, fmt.Errorf("invalid clip id: %w", err)
	}
	return clipID.String(), data[BinaryMessageHeaderSize:], nil
}
