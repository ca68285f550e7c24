package api

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// redactionKey is drawn once per process so log fingerprints cannot be
// correlated across restarts or reversed with a precomputed table.
var redactionKey = func() []byte {
	key := make([]byte, 32)
	rand.Read(key)
	return key
}()

// redact returns a short keyed fingerprint that identifies a password in logs
// without revealing it.
func redact(password string) string {
	h, _ := blake2b.New(8, redactionKey)
	h.Write([]byte(password))
	return "pw:" + hex.EncodeToString(h.Sum(nil))
}
