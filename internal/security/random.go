package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// TokenAlphabet holds the characters Telegram accepts in a webhook secret.
const TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString draws length characters from alphabet without modulo bias.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", errNegativeLength
	case length == 0:
		return "", nil
	case alphabet == "":
		return "", errEmptyAlphabet
	}

	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for index := range out {
		position, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[index] = alphabet[position.Int64()]
	}
	return string(out), nil
}

// RandomToken returns a secret usable as a webhook secret token or signing key.
func RandomToken(length int) (string, error) {
	return RandomString(length, TokenAlphabet)
}
