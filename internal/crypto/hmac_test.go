package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestL2HeadersAtDeterministic(t *testing.T) {
	auth := &HMACAuth{
		Key:        "key-123",
		Secret:     base64.StdEncoding.EncodeToString([]byte("super-secret")),
		Passphrase: "pass",
	}

	h1 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"size":10}`, 1700000000)
	h2 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"size":10}`, 1700000000)

	if h1["POLY_SIGNATURE"] != h2["POLY_SIGNATURE"] {
		t.Error("same inputs produced different signatures")
	}
	if h1["POLY_ADDRESS"] != "0xabc" || h1["POLY_API_KEY"] != "key-123" || h1["POLY_PASSPHRASE"] != "pass" {
		t.Errorf("header fields wrong: %v", h1)
	}
	if h1["POLY_TIMESTAMP"] != "1700000000" {
		t.Errorf("timestamp = %s", h1["POLY_TIMESTAMP"])
	}

	// Any input change must change the signature.
	h3 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"size":11}`, 1700000000)
	if h3["POLY_SIGNATURE"] == h1["POLY_SIGNATURE"] {
		t.Error("different body produced identical signature")
	}
}

func TestStringRedactsSecrets(t *testing.T) {
	auth := &HMACAuth{Key: "key-123456", Secret: "secret-abcdef"}
	s := auth.String()
	if strings.Contains(s, "123456") || strings.Contains(s, "abcdef") {
		t.Errorf("secrets leaked in %q", s)
	}
}
