// Package stream provides the single-shot stream session lifecycle and the paced chunk pump.
// A session moves through idle, file_open, listening, accepted, streaming and done (or
// failed); the pump writes fixed-size chunks in file order with a fixed pause after each.
package stream
