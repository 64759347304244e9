// ABOUTME: Version information for the relay binaries
// ABOUTME: Reported in mDNS TXT records, /status and -version output
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name advertised to clients
	Product = "PCM Relay"

	// Manufacturer identifies who built the relay
	Manufacturer = "Resonate"
)

// String returns a human readable version line
func String() string {
	return Product + " " + Version
}
