package announce

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Announce packets carry an HMAC-SHA256 signature prefix over the
// MessagePack body, so receivers can reject forged or corrupted beacons
// before unmarshaling anything.

// HMACSize is the length of the signature prefix in bytes.
const HMACSize = sha256.Size

// ComputeHMAC signs an encoded announce body with the shared secret.
func ComputeHMAC(data []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyHMAC reports whether sig matches data under the shared secret.
// The comparison is constant-time.
func VerifyHMAC(sig, data []byte, secret string) bool {
	expected := ComputeHMAC(data, secret)
	return hmac.Equal(sig, expected)
}
