// Package keycodec encodes and decodes the opaque byte blobs (public keys,
// ciphertext, nonces, signaling payloads) that cross the wire as base64. The
// server never interprets the bytes it carries.
package keycodec

import "encoding/base64"

// Encode returns the standard base64 encoding of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses the standard base64 encoding of s back into bytes.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
