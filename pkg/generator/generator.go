package generator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	GameIDLength   = 22
	TokenByteCount = 32
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

// GenerateRandomID returns a base62 string of the given length drawn from crypto/rand.
func GenerateRandomID(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	result := make([]byte, length)
	for i := range result {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		result[i] = alphabet[randomIndex.Int64()]
	}

	return string(result), nil
}

func GameID() (string, error) {
	return GenerateRandomID(GameIDLength)
}

// Token returns n random bytes encoded as unpadded base64url.
// Nothing about the output depends on earlier calls.
func Token(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid token size %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
