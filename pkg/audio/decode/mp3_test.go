// ABOUTME: Tests for MP3 and FLAC decoders
// ABOUTME: Verifies malformed streams are rejected with errors
package decode

import (
	"bytes"
	"testing"
)

func TestMP3Decoder_InvalidData(t *testing.T) {
	_, _, err := (&MP3Decoder{}).Decode(bytes.NewReader([]byte("not an mp3 stream")))
	if err == nil {
		t.Fatal("expected error for invalid mp3 data")
	}
}

func TestFLACDecoder_InvalidData(t *testing.T) {
	_, _, err := (&FLACDecoder{}).Decode(bytes.NewReader([]byte("fLaX garbage")))
	if err == nil {
		t.Fatal("expected error for invalid flac data")
	}
}
