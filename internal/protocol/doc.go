// Package protocol owns the relay object grammar and message decoding.
//
// Ownership boundary:
// - typed object values (chr, int, lon, str, buf, ptr, tim, htb, hda, inf, inl, arr)
// - message decode from a frame body (identifier + payload objects)
// - message encode for fixtures and the in-process fake relay
//
// Byte-level primitives live in protocol/wire; stream framing and
// compression live in protocol/frame.
package protocol
