// ABOUTME: Entry point for the fourtrack remote control CLI
// ABOUTME: Sends record, stop, play and preview commands to a recorder
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/internal/discovery"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/protocol"
	"github.com/google/uuid"
)

var (
	serverAddr = flag.String("server", "", "Recorder address host:port (default: discover via mDNS)")
	arm        = flag.String("arm", "1", "Tracks to arm, e.g. 1,3")
	mute       = flag.String("mute", "", "Tracks to mute, e.g. 2")
	mix        = flag.String("mix", "", "Tracks to mix into the recording, e.g. 2,4")
	outDir     = flag.String("out", "", "On stop, save the clip into this directory")
	timeout    = flag.Duration("timeout", 10*time.Second, "Discovery and response timeout")
	verbose    = flag.Bool("v", false, "Log protocol traffic to stderr")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fourtrack-remote [flags] <command>

Commands:
  record        start recording with -arm/-mute/-mix
  stop          stop recording (use -out to save the clip)
  play          play tracks, honoring -mute
  preview N     play only track N (1-4)
  state         print the recorder state
  discover      list recorders on the network

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	command := flag.Arg(0)
	if command == "discover" {
		discover()
		return
	}

	addr := *serverAddr
	if addr == "" {
		server, err := findServer()
		if err != nil {
			fail(err)
		}
		addr = server
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       "fourtrack-remote",
		WantClips:  command == "stop" && *outDir != "",
	})
	if err := client.Connect(); err != nil {
		fail(fmt.Errorf("connect to %s: %w", addr, err))
	}
	defer client.Close()

	// The server sends its state right after the handshake
	initial, err := nextState(client)
	if err != nil {
		fail(err)
	}

	switch command {
	case "record":
		setup, err := buildSetup()
		if err != nil {
			fail(err)
		}
		run(client, client.Record(setup))
	case "play":
		setup, err := buildSetup()
		if err != nil {
			fail(err)
		}
		run(client, client.Play(setup))
	case "preview":
		n, err := strconv.Atoi(flag.Arg(1))
		if err != nil || n < 1 || n > 4 {
			fail(fmt.Errorf("preview needs a track number 1-4"))
		}
		run(client, client.Preview(n-1))
	case "stop":
		run(client, client.Stop())
		if *outDir != "" {
			saveClip(client)
		}
	case "state":
		printState(initial)
	default:
		usage()
		os.Exit(2)
	}
}

// run waits for the state that follows a command and prints it
func run(client *protocol.Client, sendErr error) {
	if sendErr != nil {
		fail(sendErr)
	}

	state, err := nextState(client)
	if err != nil {
		fail(err)
	}
	printState(state)
}

func nextState(client *protocol.Client) (protocol.EngineState, error) {
	select {
	case state := <-client.States:
		return state, nil
	case e := <-client.Errors:
		return protocol.EngineState{}, fmt.Errorf("%s: %s", e.Command, e.Message)
	case <-client.Done():
		return protocol.EngineState{}, fmt.Errorf("connection closed")
	case <-time.After(*timeout):
		return protocol.EngineState{}, fmt.Errorf("no response from recorder")
	}
}

func printState(state protocol.EngineState) {
	fmt.Printf("state: %s\n", state.State)
	for _, track := range state.Tracks {
		take := "empty"
		if track.Loaded {
			take = (time.Duration(track.DurationMs) * time.Millisecond).String()
		}
		fmt.Printf("  track %d: %s\n", track.Index+1, take)
	}
	if state.BlocksDropped > 0 {
		fmt.Printf("  dropped blocks: %d\n", state.BlocksDropped)
	}
}

// saveClip waits for the clip announcement and its WAV bytes
func saveClip(client *protocol.Client) {
	var info protocol.EngineClip
	select {
	case info = <-client.ClipInfos:
	case <-time.After(*timeout):
		fail(fmt.Errorf("no clip received (was the recorder recording?)"))
	}

	select {
	case clip := <-client.Clips:
		if clip.ID != info.ID {
			fail(fmt.Errorf("clip id mismatch: %s != %s", clip.ID, info.ID))
		}
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			fail(err)
		}
		path := filepath.Join(*outDir, info.Filename)
		if err := os.WriteFile(path, clip.Data, 0644); err != nil {
			fail(err)
		}
		fmt.Printf("saved %s (%d ms, %d bytes)\n", path, info.DurationMs, len(clip.Data))
	case <-time.After(*timeout):
		fail(fmt.Errorf("clip data not received"))
	}
}

func buildSetup() (protocol.EngineSetup, error) {
	var setup protocol.EngineSetup

	apply := func(list string, set func(*protocol.TrackFlags)) error {
		tracks, err := parseTracks(list)
		if err != nil {
			return err
		}
		for _, t := range tracks {
			set(&setup.Tracks[t])
		}
		return nil
	}

	if err := apply(*arm, func(f *protocol.TrackFlags) { f.Armed = true }); err != nil {
		return setup, fmt.Errorf("-arm: %w", err)
	}
	if err := apply(*mute, func(f *protocol.TrackFlags) { f.Muted = true }); err != nil {
		return setup, fmt.Errorf("-mute: %w", err)
	}
	if err := apply(*mix, func(f *protocol.TrackFlags) { f.Mixed = true }); err != nil {
		return setup, fmt.Errorf("-mix: %w", err)
	}
	return setup, nil
}

// parseTracks converts "1,3" into 0-based indexes
func parseTracks(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var tracks []int
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > 4 {
			return nil, fmt.Errorf("invalid track %q", field)
		}
		tracks = append(tracks, n-1)
	}
	return tracks, nil
}

func findServer() (string, error) {
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	disc.Browse()

	select {
	case server := <-disc.Servers():
		return server.Addr(), nil
	case <-time.After(*timeout):
		return "", fmt.Errorf("no recorder found after %v", *timeout)
	}
}

func discover() {
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	disc.Browse()

	seen := make(map[string]bool)
	deadline := time.After(*timeout)
	for {
		select {
		case server := <-disc.Servers():
			if seen[server.Addr()] {
				continue
			}
			seen[server.Addr()] = true
			fmt.Printf("%s\t%s%s\n", server.Name, server.Addr(), server.Path)
		case <-deadline:
			if len(seen) == 0 {
				fmt.Println("no recorders found")
			}
			return
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "fourtrack-remote: %v\n", err)
	os.Exit(1)
}
