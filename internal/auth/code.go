package auth

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the fixed length of verification codes.
const CodeLength = 7

var codeAlphabet = []byte("0123456789")

// GenerateCode returns a fixed-length numeric code drawn uniformly from the
// decimal digits using a cryptographically strong source. Codes gate password
// resets and account activation, so predictability is an account-takeover risk.
func GenerateCode() string {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// there is no meaningful recovery for a credential generator.
			panic(err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}
