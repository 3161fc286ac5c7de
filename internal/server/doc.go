// Package server implements the single-client TCP streaming server and its HTTP monitoring API.
// The streaming server opens a file past its header, binds a listener with a fixed backlog,
// accepts exactly one client and writes the payload to it in paced chunks; every fallible
// step reports a tagged error.
package server
