// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests 16-bit interleaved PCM encoding and narrowing modes
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid 16-bit stereo PCM",
			format:  audio.DefaultFormat(),
			wantErr: false,
		},
		{
			name: "invalid codec",
			format: audio.Format{
				Codec:      "opus",
				SampleRate: 44100,
				Channels:   2,
				BitDepth:   16,
			},
			wantErr:     true,
			errContains: "invalid codec",
		},
		{
			name: "unsupported bit depth",
			format: audio.Format{
				Codec:      "pcm",
				SampleRate: 44100,
				Channels:   2,
				BitDepth:   24,
			},
			wantErr:     true,
			errContains: "unsupported bit depth",
		},
		{
			name: "mono",
			format: audio.Format{
				Codec:      "pcm",
				SampleRate: 44100,
				Channels:   1,
				BitDepth:   16,
			},
			wantErr:     true,
			errContains: "unsupported channel count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewPCM() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("NewPCM() unexpected error = %v", err)
			}
			if encoder == nil {
				t.Errorf("NewPCM() returned nil encoder")
			}
		})
	}
}

func TestPCMEncoder_Encode(t *testing.T) {
	encoder, err := NewPCM(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	left := []float32{0, 1.0, -1.0}
	right := []float32{0.5, -0.5, 0}

	output, err := encoder.Encode(left, right)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	expected := []int16{0, 16383, 32767, -16383, -32767, 0}
	if len(output) != len(expected)*2 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(expected)*2)
	}

	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if got != want {
			t.Errorf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestPCMEncoder_Narrowing(t *testing.T) {
	wrapping, err := NewPCM(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	saturating, err := NewPCM(audio.DefaultFormat(), WithSaturation(true))
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	left := []float32{2.0}
	right := []float32{-2.0}

	wrapped, _ := wrapping.Encode(left, right)
	if got := int16(binary.LittleEndian.Uint16(wrapped[0:])); got != -2 {
		t.Errorf("wrapping left: got %d, want -2", got)
	}
	if got := int16(binary.LittleEndian.Uint16(wrapped[2:])); got != 2 {
		t.Errorf("wrapping right: got %d, want 2", got)
	}

	clamped, _ := saturating.Encode(left, right)
	if got := int16(binary.LittleEndian.Uint16(clamped[0:])); got != 32767 {
		t.Errorf("saturating left: got %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(clamped[2:])); got != -32768 {
		t.Errorf("saturating right: got %d, want -32768", got)
	}
}

func TestPCMEncoder_LengthMismatch(t *testing.T) {
	encoder, err := NewPCM(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	if _, err := encoder.Encode(make([]float32, 2), make([]float32, 3)); err == nil {
		t.Error("expected error for mismatched channel lengths")
	}
}
