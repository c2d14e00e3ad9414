package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Session tokens are opaque: the API authenticates by looking them up in the
// session store, never by decoding them. The "sh_" prefix makes leaked tokens
// identifiable in logs and secret scanners.
const (
	tokenPrefix       = "sh_"
	defaultTokenBytes = 32
)

// RandomTokenGenerator mints bearer tokens from the OS entropy source. The
// zero value produces 256-bit tokens.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = defaultTokenBytes
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
