// Package pcm provides the raw PCM formats used for capture and fingerprinting.
//
// All formats are 16-bit signed little-endian mono. L16Mono11K is the format
// the fingerprint code generator consumes; the others exist for devices that
// report a different native rate.
//
// Example usage:
//
//	format := pcm.L16Mono11K
//
//	// Samples needed for a 20 second capture
//	n := format.SamplesInSeconds(20) // 220500
//
//	// Bytes to hand to an external tool
//	data := pcm.EncodeLE(samples[:n])
package pcm
