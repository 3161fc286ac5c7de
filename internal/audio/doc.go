// Package audio handles the byte-level audio plumbing of the streaming service.
// It opens source files past their fixed-size header, buffers received bytes in a
// bounded ring buffer shared by a producer and a consumer, and encodes raw PCM
// into WAV files.
package audio
