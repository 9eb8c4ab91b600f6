// Package crypto builds the HMAC authentication headers required by the
// Polymarket CLOB API. The credential blob is opaque to the rest of the bot.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the credentials required for HMAC-authenticated requests
// against the Polymarket CLOB API.
type HMACAuth struct {
	Key        string // API key
	Secret     string // API secret, base64-encoded
	Passphrase string // API passphrase
}

// L2Headers returns the HTTP headers for an L2 (CLOB) API request. The
// secret is first base64-decoded before being used as the HMAC key.
//
// Returned header keys:
//   - POLY_ADDRESS
//   - POLY_API_KEY
//   - POLY_TIMESTAMP
//   - POLY_PASSPHRASE
//   - POLY_SIGNATURE
func (h *HMACAuth) L2Headers(address, method, path, body string) map[string]string {
	return h.L2HeadersAt(address, method, path, body, time.Now().Unix())
}

// L2HeadersAt is like L2Headers but lets the caller supply the Unix
// timestamp (useful for deterministic testing).
func (h *HMACAuth) L2HeadersAt(address, method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	secretBytes, err := base64.StdEncoding.DecodeString(h.Secret)
	if err != nil {
		// If decoding fails, fall back to raw bytes so the caller gets an
		// obviously-wrong signature rather than a panic.
		secretBytes = []byte(h.Secret)
	}

	message := ts + method + path + body
	sig := hmacSHA256Base64(secretBytes, message)

	return map[string]string{
		"POLY_ADDRESS":    address,
		"POLY_API_KEY":    h.Key,
		"POLY_TIMESTAMP":  ts,
		"POLY_PASSPHRASE": h.Passphrase,
		"POLY_SIGNATURE":  sig,
	}
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
