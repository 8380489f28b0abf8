package deepcoin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"
)

// isoTimestamp renders t in the millisecond UTC form the signing scheme
// requires, e.g. 2024-07-29T11:12:00.123Z.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// sign computes base64(hmac_sha256(secret, timestamp + METHOD + path + body)).
// For GET the path includes the query string and body is empty; for POST the
// path excludes the query string and body is the exact JSON payload later
// transmitted. Signing different bytes than are sent produces a remote auth
// failure, not a local error.
func sign(secret, timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte(path))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// authHeaders builds the signed-request header set. An empty passphrase is
// sent as-is; the exchange accepts it.
func authHeaders(apiKey, passphrase, timestamp, signature string) map[string]string {
	return map[string]string{
		"DC-ACCESS-KEY":        apiKey,
		"DC-ACCESS-SIGN":       signature,
		"DC-ACCESS-TIMESTAMP":  timestamp,
		"DC-ACCESS-PASSPHRASE": passphrase,
		"Content-Type":         "application/json",
	}
}
