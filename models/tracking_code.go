package models

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	trackingPrefixChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingDigits      = "0123456789"
)

var trackingCodePattern = regexp.MustCompile(`^[A-Z0-9]{3}-[0-9]{4}$`)

// NewTrackingCode returns a code shaped AAA-1111. It does not check for
// collisions; the unique index on reportes.codigo_seguimiento does.
func NewTrackingCode() string {
	code := make([]byte, 0, 8)
	for i := 0; i < 3; i++ {
		code = append(code, pick(trackingPrefixChars))
	}
	code = append(code, '-')
	for i := 0; i < 4; i++ {
		code = append(code, pick(trackingDigits))
	}
	return string(code)
}

// IsTrackingCode reports whether s has the tracking code shape.
func IsTrackingCode(s string) bool {
	return trackingCodePattern.MatchString(s)
}

func pick(alphabet string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return alphabet[n.Int64()]
}
