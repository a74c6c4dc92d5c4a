// Package remote serves a FourTrack engine over WebSocket.
//
// Remote clients send engine/record, engine/stop, engine/play and
// engine/preview commands and receive engine/state updates. Finished
// takes are announced with engine/clip and, for clients that ask for
// them, pushed as binary WAV messages.
//
// Example:
//
//	server, err := remote.NewServer(remote.ServerConfig{
//		Name:       "Studio",
//		Controller: engine,
//		EnableMDNS: true,
//	})
//	go server.Start()
//	defer server.Stop()
package remote
