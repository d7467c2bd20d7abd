package game

import (
	"crypto/rand"
	"math/big"
)

const serialAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newSerial generates an opaque, non-sequential player identifier.
func newSerial() string {
	return randomBase36(22)
}

func randomBase36(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(serialAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process is in serious trouble;
			// fall back to a fixed character rather than panicking mid-game.
			out[i] = serialAlphabet[0]
			continue
		}
		out[i] = serialAlphabet[idx.Int64()]
	}
	return string(out)
}
