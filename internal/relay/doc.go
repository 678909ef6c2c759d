// Package relay owns the connection to a WeeChat relay.
//
// Ownership boundary:
// - handshake and outbound text commands (init, hdata, sync, desync, quit)
// - the read loop: stream -> frames -> messages -> handlers, strictly in order
// - connection-scoped state: buffer registry and notification filter
//
// Everything a handler touches lives in State and is only used from the
// read loop, so nothing in it is locked. Outbound writes are serialized
// separately because Close may run from another goroutine.
package relay
