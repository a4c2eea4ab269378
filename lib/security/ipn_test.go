package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-ipn-key"

func sign(t *testing.T, secret string, body []byte) string {
	t.Helper()
	canonical, err := CanonicalJSON(body)
	require.NoError(t, err)
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	body := []byte(`{"payment_id":5745459419,"payment_status":"finished","pay_amount":0.0017,"order_id":"abc"}`)
	verifier := NewIPNVerifier(testSecret)
	assert.NoError(t, verifier.Verify(body, sign(t, testSecret, body)))
}

func TestVerifyIsKeyOrderIndependent(t *testing.T) {
	// the sender signs the canonical form, key order on the wire is
	// not part of the signature
	sorted := []byte(`{"a":1,"b":"x"}`)
	shuffled := []byte(`{"b":"x","a":1}`)
	verifier := NewIPNVerifier(testSecret)
	assert.NoError(t, verifier.Verify(shuffled, sign(t, testSecret, sorted)))
}

func TestVerifyPreservesNumericPrecision(t *testing.T) {
	body := []byte(`{"actually_paid":0.00170000,"payment_id":5745459419000000001}`)
	verifier := NewIPNVerifier(testSecret)
	assert.NoError(t, verifier.Verify(body, sign(t, testSecret, body)))
}

func TestVerifyAcceptsUppercaseSignature(t *testing.T) {
	body := []byte(`{"payment_id":1}`)
	verifier := NewIPNVerifier(testSecret)
	assert.NoError(t, verifier.Verify(body, strings.ToUpper(sign(t, testSecret, body))))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"payment_id":1,"payment_status":"finished"}`)
	signature := sign(t, testSecret, body)
	tampered := []byte(`{"payment_id":2,"payment_status":"finished"}`)
	verifier := NewIPNVerifier(testSecret)
	assert.ErrorIs(t, verifier.Verify(tampered, signature), ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"payment_id":1}`)
	verifier := NewIPNVerifier(testSecret)
	assert.ErrorIs(t, verifier.Verify(body, sign(t, "other-secret", body)), ErrInvalidSignature)
}

func TestVerifyFailsClosed(t *testing.T) {
	body := []byte(`{"payment_id":1}`)

	// missing secret rejects everything
	assert.ErrorIs(t, NewIPNVerifier("").Verify(body, sign(t, testSecret, body)), ErrInvalidSignature)

	verifier := NewIPNVerifier(testSecret)
	// missing, malformed and truncated signatures
	assert.ErrorIs(t, verifier.Verify(body, ""), ErrInvalidSignature)
	assert.ErrorIs(t, verifier.Verify(body, "not-hex"), ErrInvalidSignature)
	assert.ErrorIs(t, verifier.Verify(body, "deadbeef"), ErrInvalidSignature)
	// unparseable bodies never verify
	assert.ErrorIs(t, verifier.Verify([]byte(`{"x":`), sign(t, testSecret, body)), ErrInvalidSignature)
	assert.ErrorIs(t, verifier.Verify([]byte(`{"x":1}{"y":2}`), sign(t, testSecret, body)), ErrInvalidSignature)
}

func TestCanonicalJSONSortsKeysRecursively(t *testing.T) {
	canonical, err := CanonicalJSON([]byte(`{"b":{"z":1,"a":2},"a":[3,1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[3,1,2],"b":{"a":2,"z":1}}`, string(canonical))
}

func TestCanonicalJSONKeepsNumberText(t *testing.T) {
	canonical, err := CanonicalJSON([]byte(`{"amount":0.00170000}`))
	require.NoError(t, err)
	assert.Equal(t, `{"amount":0.00170000}`, string(canonical))
}

func TestCanonicalJSONDoesNotEscapeHTML(t *testing.T) {
	canonical, err := CanonicalJSON([]byte(`{"url":"https://x.test/a?b=1&c=2"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://x.test/a?b=1&c=2"}`, string(canonical))
}
