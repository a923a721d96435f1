// internal/utils/crypto.go
package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
	"strings"
)

const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		b[i] = codeCharset[n.Int64()]
	}

	return string(b), nil
}

// GenerateRedemptionCode produces a candidate code in 3-4-4 alphanumeric
// groups. Uniqueness is not guaranteed here; the store's unique index on
// transactions.unique_code is authoritative and callers retry on collision.
func GenerateRedemptionCode() (string, error) {
	segments := make([]string, 0, 3)
	for _, length := range []int{3, 4, 4} {
		s, err := GenerateRandomString(length)
		if err != nil {
			return "", err
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, "-"), nil
}

// SignPayload computes the base64 HMAC-SHA256 of body, the scheme Shopify
// uses for webhook signatures.
func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the signature header against the keyed hash of
// the exact bytes received, in constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	expected := SignPayload(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
