// ABOUTME: Entry point for the fourtrack recorder
// ABOUTME: Opens the audio device, builds the engine and wires UI, remote control and clips
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/Resonate-Protocol/fourtrack-go/internal/clips"
	"github.com/Resonate-Protocol/fourtrack-go/internal/config"
	"github.com/Resonate-Protocol/fourtrack-go/internal/metrics"
	"github.com/Resonate-Protocol/fourtrack-go/internal/ui"
	"github.com/Resonate-Protocol/fourtrack-go/internal/version"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio/device"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/remote"
)

var (
	configPath = flag.String("config", "", "YAML config file (optional)")
	blockSize  = flag.Int("block-size", 2048, "Capture block size in frames")
	saturate   = flag.Bool("saturate", false, "Clamp out-of-range samples instead of wrapping when encoding")
	noMonitor  = flag.Bool("no-monitor", false, "Do not play the live input on the output")
	remoteOn   = flag.Bool("remote", false, "Enable the WebSocket remote control server")
	port       = flag.Int("port", 8928, "Remote control port")
	name       = flag.String("name", "", "Recorder friendly name (default: hostname-fourtrack)")
	clipsDir   = flag.String("clips-dir", "clips", "Directory for saved clips (empty disables saving)")
	uploadURL  = flag.String("upload-url", "", "POST each clip to this URL as audio_data")
	logFile    = flag.String("log-file", "fourtrack.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
	loads      trackLoads
)

func init() {
	flag.Var(&loads, "load", "Load an audio file into a track, N=path (repeatable)")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(cfg.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI || !cfg.Logging.Stream {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	recorderName := cfg.Remote.Name
	if recorderName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		recorderName = fmt.Sprintf("%s-fourtrack", hostname)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, recorderName)

	// Open the device before the engine exists; blocks are silent until it is attached
	var engineRef atomic.Pointer[fourtrack.Engine]
	host := device.NewMalgo(device.Config{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BlockSize:  cfg.Audio.BlockSize,
	})
	err = host.Start(device.ProcessorFunc(func(in, out [][]float32) {
		if engine := engineRef.Load(); engine != nil {
			engine.Process(in, out)
			return
		}
		for _, ch := range out {
			clear(ch)
		}
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Microphone unavailable: %v\n", err)
		log.Printf("Microphone unavailable: %v", err)
		os.Exit(1)
	}
	defer host.Close()

	sink := &clipSink{}
	engine, err := fourtrack.NewEngine(fourtrack.Config{
		BlockSize:   cfg.Audio.BlockSize,
		RingBlocks:  cfg.Audio.RingBlocks,
		MixGain:     cfg.Audio.MixGain,
		MonitorGain: cfg.Audio.MonitorGain,
		MonitorOff:  !cfg.Audio.Monitor,
		Saturate:    cfg.Audio.Saturate,
		OnClip:      sink.handle,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	for _, load := range loads {
		buf, err := decode.DecodeFile(load.path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", load.path, err)
		}
		if err := engine.LoadTrack(load.track, buf); err != nil {
			log.Fatalf("Failed to load track %d: %v", load.track+1, err)
		}
	}

	engineRef.Store(engine)

	m := metrics.NewMetrics(engine)
	sink.metrics = m

	if cfg.Clips.Dir != "" {
		store, err := clips.NewStore(cfg.Clips.Dir)
		if err != nil {
			log.Fatalf("Failed to open clip store: %v", err)
		}
		sink.store = store
	}
	if cfg.Clips.UploadURL != "" {
		sink.uploader = clips.NewUploader(cfg.Clips.UploadURL, cfg.Clips.GetUploadTimeout())
	}

	var server *remote.Server
	if cfg.Remote.Enabled {
		serverConfig := remote.ServerConfig{
			Port:       cfg.Remote.Port,
			Name:       recorderName,
			Controller: engine,
			EnableMDNS: cfg.Remote.MDNS,
			Metrics:    m.Handler(),
		}
		if sink.store != nil {
			serverConfig.ClipsDir = sink.store.Dir()
		}

		server, err = remote.NewServer(serverConfig)
		if err != nil {
			log.Fatalf("Failed to create remote server: %v", err)
		}
		sink.setServer(server)

		go func() {
			if err := server.Start(); err != nil {
				log.Printf("Remote server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		tuiProg, err := ui.Run(engine, recorderName)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}

		go func() {
			<-sigChan
			log.Printf("Shutdown signal received")
			tuiProg.Quit()
		}()

		if _, err := tuiProg.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	} else {
		log.Printf("TUI disabled - control the recorder remotely")
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	// Keep a take in progress instead of discarding it
	if engine.State() == fourtrack.Recording {
		if _, err := engine.Stop(); err != nil {
			log.Printf("Error stopping recording: %v", err)
		}
	}

	if server != nil {
		server.Stop()
	}
	sink.wait()

	log.Printf("Recorder stopped")
}

// loadConfig reads -config and applies explicitly set flags on top
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "block-size":
			cfg.Audio.BlockSize = *blockSize
		case "saturate":
			cfg.Audio.Saturate = *saturate
		case "no-monitor":
			cfg.Audio.Monitor = !*noMonitor
		case "remote":
			cfg.Remote.Enabled = *remoteOn
		case "port":
			cfg.Remote.Port = *port
		case "name":
			cfg.Remote.Name = *name
		case "clips-dir":
			cfg.Clips.Dir = *clipsDir
		case "upload-url":
			cfg.Clips.UploadURL = *uploadURL
		case "log-file":
			cfg.Logging.File = *logFile
		case "stream-logs":
			cfg.Logging.Stream = *streamLogs
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// clipSink saves, uploads and broadcasts finished takes
type clipSink struct {
	store    *clips.Store
	uploader *clips.Uploader
	metrics  *metrics.Metrics

	mu     sync.Mutex
	server *remote.Server
	wg     sync.WaitGroup
}

func (s *clipSink) setServer(server *remote.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = server
}

func (s *clipSink) handle(clip *fourtrack.Clip) {
	if s.metrics != nil {
		s.metrics.ClipBytes.Observe(float64(len(clip.Data)))
	}

	url := ""
	if s.store != nil {
		if _, err := s.store.Save(clip); err != nil {
			log.Printf("Failed to save clip: %v", err)
			s.count(func(m *metrics.Metrics) { m.ClipSaveErrors.Inc() })
		} else {
			url = "/clips/" + clip.Filename()
			s.count(func(m *metrics.Metrics) { m.ClipsSaved.Inc() })
		}
	}

	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server != nil {
		server.BroadcastClip(clip, url)
	}

	if s.uploader != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.uploader.Upload(context.Background(), clip); err != nil {
				log.Printf("Failed to upload clip: %v", err)
				s.count(func(m *metrics.Metrics) { m.ClipUploadFails.Inc() })
				return
			}
			s.count(func(m *metrics.Metrics) { m.ClipsUploaded.Inc() })
		}()
	}
}

func (s *clipSink) count(fn func(m *metrics.Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

// wait blocks until pending uploads finish
func (s *clipSink) wait() {
	s.wg.Wait()
}

// trackLoad is one -load N=path flag
type trackLoad struct {
	track int
	path  string
}

type trackLoads []trackLoad

func (l *trackLoads) String() string {
	parts := make([]string, len(*l))
	for i, load := range *l {
		parts[i] = fmt.Sprintf("%d=%s", load.track+1, load.path)
	}
	return strings.Join(parts, ",")
}

func (l *trackLoads) Set(value string) error {
	track, path, ok := strings.Cut(value, "=")
	if !ok || path == "" {
		return fmt.Errorf("expected N=path, got %q", value)
	}
	n, err := strconv.Atoi(track)
	if err != nil || n < 1 || n > fourtrack.NumTracks {
		return fmt.Errorf("track must be 1-%d, got %q", fourtrack.NumTracks, track)
	}
	*l = append(*l, trackLoad{track: n - 1, path: path})
	return nil
}
