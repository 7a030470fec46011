package announce

import (
	"testing"
	"time"
)

func testPayload() *Payload {
	return &Payload{
		Version:   1,
		Timestamp: time.Now().Unix(),
		Hostname:  "testhost",
		Port:      8546,
		Kinds:     []string{"cpu", "memory"},
	}
}

func TestEncodeDecode(t *testing.T) {
	packet, err := Encode(testPayload(), "secret")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(packet, "secret", time.Minute)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Hostname != "testhost" || got.Port != 8546 {
		t.Errorf("payload mismatch: %+v", got)
	}
	if len(got.Kinds) != 2 || got.Kinds[0] != "cpu" {
		t.Errorf("kinds mismatch: %v", got.Kinds)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	packet, err := Encode(testPayload(), "secret")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := Decode(packet, "other-secret", time.Minute); err == nil {
		t.Error("expected HMAC failure with wrong secret")
	}
}

func TestDecode_TamperedPayload(t *testing.T) {
	packet, err := Encode(testPayload(), "secret")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	packet[len(packet)-1] ^= 0xff
	if _, err := Decode(packet, "secret", time.Minute); err == nil {
		t.Error("expected HMAC failure after tampering")
	}
}

func TestDecode_StaleTimestamp(t *testing.T) {
	p := testPayload()
	p.Timestamp = time.Now().Add(-5 * time.Minute).Unix()

	packet, err := Encode(p, "secret")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := Decode(packet, "secret", time.Minute); err == nil {
		t.Error("expected rejection of stale timestamp")
	}
}

func TestDecode_TruncatedPacket(t *testing.T) {
	if _, err := Decode(make([]byte, HMACSize), "secret", time.Minute); err == nil {
		t.Error("expected error for packet without payload")
	}
}

func TestVerifyHMAC(t *testing.T) {
	data := []byte("payload")
	sig := ComputeHMAC(data, "secret")

	if !VerifyHMAC(sig, data, "secret") {
		t.Error("valid signature rejected")
	}
	if VerifyHMAC(sig, []byte("other"), "secret") {
		t.Error("signature accepted for different data")
	}
}
