// ABOUTME: Clip persistence package
// ABOUTME: Saves finished takes to disk and uploads them over HTTP
// Package clips stores and uploads the WAV clips produced by the engine.
//
// Saved clips are named by their creation time in ISO-8601 UTC, for
// example 2024-05-01T12:00:00.000Z.wav. Uploads are multipart POSTs
// with the file in the audio_data field.
package clips
