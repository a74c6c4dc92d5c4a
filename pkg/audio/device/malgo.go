// ABOUTME: Malgo-based duplex audio host
// ABOUTME: Captures the microphone and plays the mix through one miniaudio device
package device

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Malgo drives a Processor from a miniaudio duplex device
type Malgo struct {
	config   Config
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// Preallocated planar scratch, sized for the largest period seen at Start
	in  [][]float32
	out [][]float32

	mu sync.Mutex
}

// NewMalgo creates a duplex host. No device is opened until Start.
func NewMalgo(config Config) *Malgo {
	return &Malgo{config: config}
}

// Start opens the default capture and playback devices and begins calling p.
// A missing device or denied permission is reported here.
func (m *Malgo) Start(p Processor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("audio device already started")
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
			log.Printf("malgo: %s", message)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	channels := m.config.Channels
	m.in = allocPlanar(channels, m.config.BlockSize)
	m.out = allocPlanar(channels, m.config.BlockSize)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(m.config.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(m.config.BlockSize)
	deviceConfig.PerformanceProfile = malgo.LowLatency
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		m.dataCallback(p, pOutputSample, pInputSamples, int(frameCount))
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	log.Printf("Audio device started: %dHz, %d channels, %d frames per block (malgo/duplex)",
		m.config.SampleRate, channels, m.config.BlockSize)

	return nil
}

// dataCallback converts interleaved device bytes to planar blocks.
// Periods longer than the block size are split so scratch never grows.
func (m *Malgo) dataCallback(p Processor, output, input []byte, frameCount int) {
	channels := len(m.in)
	blockSize := m.config.BlockSize

	for start := 0; start < frameCount; start += blockSize {
		n := min(blockSize, frameCount-start)
		in := m.in
		out := m.out
		for ch := 0; ch < channels; ch++ {
			in[ch] = in[ch][:n]
			out[ch] = out[ch][:n]
		}

		deinterleave(in, input, start)
		p.Process(in, out)
		interleave(output, out, start)

		for ch := 0; ch < channels; ch++ {
			in[ch] = in[ch][:blockSize]
			out[ch] = out[ch][:blockSize]
		}
	}
}

// Close stops and releases the device and context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}

func allocPlanar(channels, frames int) [][]float32 {
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, frames)
	}
	return planar
}

// deinterleave reads len(dst[0]) frames of native-endian float32 starting at frame offset
func deinterleave(dst [][]float32, src []byte, offset int) {
	channels := len(dst)
	for i := range dst[0] {
		for ch := 0; ch < channels; ch++ {
			pos := ((offset+i)*channels + ch) * 4
			if pos+4 > len(src) {
				dst[ch][i] = 0
				continue
			}
			dst[ch][i] = math.Float32frombits(binary.NativeEndian.Uint32(src[pos:]))
		}
	}
}

// interleave writes planar frames back into native-endian float32 bytes
func interleave(dst []byte, src [][]float32, offset int) {
	channels := len(src)
	for i := range src[0] {
		for ch := 0; ch < channels; ch++ {
			pos := ((offset+i)*channels + ch) * 4
			if pos+4 > len(dst) {
				return
			}
			binary.NativeEndian.PutUint32(dst[pos:], math.Float32bits(src[ch][i]))
		}
	}
}
