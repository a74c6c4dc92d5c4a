// Package fourtrack implements a four-track recorder.
//
// An Engine owns four track slots, an audio graph that mixes live input
// with playing tracks, and the capture path that turns a recording pass
// into a stereo buffer and a WAV clip.
//
// Example:
//
//	engine, err := fourtrack.NewEngine(fourtrack.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	host.Start(engine)
//
//	var setup fourtrack.TrackSetup
//	setup[0].Armed = true
//	engine.Record(setup)
//	// ...
//	clip, err := engine.Stop()
package fourtrack
