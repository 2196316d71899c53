package ident

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID returns a random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewReferenceCode returns a human-readable invoice number of the form
// INV-XXXX-YYYYYY. XXXX comes from a fresh UUID, YYYYYY from an independent
// random source, so two codes only collide if both halves do.
func NewReferenceCode() string {
	prefix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = referenceAlphabet[rand.IntN(len(referenceAlphabet))]
	}

	return "INV-" + prefix + "-" + string(suffix)
}
