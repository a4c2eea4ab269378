package security

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidSignature is deliberately the only error this package
// returns for a bad webhook: callers must not reveal whether the body
// was malformed or the signature mismatched.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// IPNVerifier checks the authenticity of gateway webhook payloads. The
// gateway signs the JSON body with its object keys recursively sorted,
// serialized without extra whitespace, HMAC-SHA512 keyed with the
// shared IPN secret.
type IPNVerifier struct {
	secret []byte
}

func NewIPNVerifier(secret string) *IPNVerifier {
	return &IPNVerifier{secret: []byte(secret)}
}

// Verify fails closed: missing secret, missing or undecodable header,
// unparseable body and signature mismatch all yield ErrInvalidSignature.
func (v *IPNVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return ErrInvalidSignature
	}
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(canonical)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil || len(provided) == 0 {
		return ErrInvalidSignature
	}
	if !hmac.Equal(expected, provided) {
		return ErrInvalidSignature
	}
	return nil
}

// CanonicalJSON re-serializes a JSON document with object keys sorted
// recursively, arrays in order and no added whitespace. encoding/json
// sorts map keys on marshal and json.Number keeps the exact numeric
// text from the wire, so a decode/encode round trip is the whole
// canonicalization.
func CanonicalJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON document")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
