// internal/utils/crypto_test.go
package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRedemptionCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9]{3}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}$`)

	for i := 0; i < 50; i++ {
		code, err := GenerateRedemptionCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateRedemptionCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateRedemptionCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "generated the same code twice: %s", code)
		seen[code] = true
	}
}

func TestGenerateRandomStringLength(t *testing.T) {
	for _, length := range []int{1, 4, 16, 32} {
		s, err := GenerateRandomString(length)
		require.NoError(t, err)
		assert.Len(t, s, length)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":123456,"line_items":[{"product_id":789,"price":"20.00"}]}`)
	secret := "test-webhook-secret"

	signature := SignPayload(body, secret)
	assert.True(t, VerifySignature(body, signature, secret))
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"id":123456}`)
	secret := "test-webhook-secret"
	signature := SignPayload(body, secret)

	tampered := []byte(`{"id":123457}`)
	assert.False(t, VerifySignature(tampered, signature, secret))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":123456}`)
	signature := SignPayload(body, "secret-a")

	assert.False(t, VerifySignature(body, signature, "secret-b"))
}

func TestVerifySignatureRejectsGarbage(t *testing.T) {
	body := []byte(`{"id":123456}`)

	assert.False(t, VerifySignature(body, "", "secret"))
	assert.False(t, VerifySignature(body, "not-a-signature", "secret"))
}
