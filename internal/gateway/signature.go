package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of "orderID|status" that the gateway attaches
// to its callback.
func Sign(secret, orderID, status string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + status))
	return hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret, orderID, status, signature string) bool {
	expected, err := hex.DecodeString(Sign(secret, orderID, status))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
