// ABOUTME: FourTrack remote control protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the FourTrack remote control protocol.
//
// Provides message types and a WebSocket client that drives a
// recorder over the network.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928"})
//	err := client.Connect()
//	err = client.Record(setup)
package protocol
