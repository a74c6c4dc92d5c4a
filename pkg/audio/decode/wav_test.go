// ABOUTME: Tests for WAV decoder and track buffer conversion
// ABOUTME: Round-trips encoder output and checks chunk handling
package decode

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio/encode"
)

func TestWAVDecoder_RoundTrip(t *testing.T) {
	left := []float32{0, 0.5, -0.5, 1.0}
	right := []float32{-1.0, 0.25, 0, 0.75}

	data, err := encode.EncodeWAV(left, right, 44100)
	if err != nil {
		t.Fatalf("EncodeWAV() failed: %v", err)
	}

	channels, sampleRate, err := (&WAVDecoder{}).Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if sampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", sampleRate)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}

	for i := range left {
		if diff := channels[0][i] - left[i]; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("left %d: got %f, want %f", i, channels[0][i], left[i])
		}
		if diff := channels[1][i] - right[i]; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("right %d: got %f, want %f", i, channels[1][i], right[i])
		}
	}
}

// buildMonoWAV writes a mono 16-bit WAV with a LIST chunk before the data
func buildMonoWAV(sampleRate int, samples []int16) []byte {
	var buf bytes.Buffer
	list := []byte("INFOtest!") // odd size exercises the pad byte

	dataSize := uint32(len(samples) * 2)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+len(list)+1+8)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(len(list)))
	buf.Write(list)
	buf.WriteByte(0)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

func TestWAVDecoder_MonoWithExtraChunk(t *testing.T) {
	data := buildMonoWAV(22050, []int16{0, 32767, -32767})

	channels, sampleRate, err := (&WAVDecoder{}).Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if sampleRate != 22050 {
		t.Errorf("expected 22050, got %d", sampleRate)
	}
	if len(channels) != 1 || len(channels[0]) != 3 {
		t.Fatalf("unexpected shape: %d channels", len(channels))
	}
	if channels[0][1] != 1.0 || channels[0][2] != -1.0 {
		t.Errorf("unexpected samples: %v", channels[0])
	}
}

func TestWAVDecoder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"not wave", []byte("RIFF\x00\x00\x00\x00AVI ")},
		{"no data chunk", []byte("RIFF\x04\x00\x00\x00WAVE")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := (&WAVDecoder{}).Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewDecoder(t *testing.T) {
	for _, ext := range []string{".wav", ".WAV", ".mp3", ".flac"} {
		if _, err := NewDecoder(ext); err != nil {
			t.Errorf("NewDecoder(%q) failed: %v", ext, err)
		}
	}

	if _, err := NewDecoder(".ogg"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestToTrackBuffer_MonoResampled(t *testing.T) {
	buf, err := ToTrackBuffer([][]float32{make([]float32, 22050)}, 22050)
	if err != nil {
		t.Fatalf("ToTrackBuffer() failed: %v", err)
	}

	if buf.SampleRate() != audio.SampleRate {
		t.Errorf("expected %d Hz, got %d", audio.SampleRate, buf.SampleRate())
	}
	if buf.NumChannels() != 2 {
		t.Errorf("expected stereo, got %d channels", buf.NumChannels())
	}
	if buf.Frames() != 44100 {
		t.Errorf("expected 44100 frames, got %d", buf.Frames())
	}
}

func TestToTrackBuffer_Errors(t *testing.T) {
	if _, err := ToTrackBuffer(nil, 44100); err == nil {
		t.Error("expected error for no channels")
	}
	if _, err := ToTrackBuffer([][]float32{{0}}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDecodeFile(t *testing.T) {
	data, err := encode.EncodeWAV(make([]float32, 100), make([]float32, 100), 44100)
	if err != nil {
		t.Fatalf("EncodeWAV() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	buf, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() failed: %v", err)
	}
	if buf.Frames() != 100 {
		t.Errorf("expected 100 frames, got %d", buf.Frames())
	}

	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
