package service

import (
	"crypto/rand"
	"encoding/hex"
)

func randomHex(size int) string {
	buf := make([]byte, size)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Entity ids are 32 hex chars. Share tokens are longer: they are bearer
// credentials and must stay unguessable.
func newID() string {
	return randomHex(16)
}

func newToken() string {
	return randomHex(20)
}
