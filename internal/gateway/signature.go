package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of orderID|paymentID.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature was produced by the gateway for
// this order and payment.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(orderID, paymentID, secret)), []byte(signature))
}
