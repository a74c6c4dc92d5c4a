// ABOUTME: Version information for the fourtrack recorder
// ABOUTME: Product, manufacturer and version strings reported to remotes
package version

const (
	// Version is the current recorder version
	Version = "0.1.0"

	// Product is the product name
	Product = "FourTrack"

	// Manufacturer identifies the publisher
	Manufacturer = "Resonate Protocol"
)
