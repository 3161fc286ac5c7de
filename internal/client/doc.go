// Package client implements the receiving side of the WAV streaming service.
package client
