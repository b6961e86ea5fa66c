// Package partycode generates and validates short party join codes and host
// tokens.
package partycode

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet deliberately omits O and 0 to avoid read-aloud confusion.
const Alphabet = "ABCDEFGHIJKLMNPQRSTUVWXYZ123456789"

// Length of a party code.
const Length = 4

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Generate returns a random uppercase alphanumeric party code.
func Generate() (string, error) {
	return gonanoid.Generate(Alphabet, Length)
}

// Valid reports whether code is a well-formed party code.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

// NewHostToken returns an opaque bearer token granting host control.
func NewHostToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
