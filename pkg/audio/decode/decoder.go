// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for sample decoders
package decode

// Decoder decodes wire bytes to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}
