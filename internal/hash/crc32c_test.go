package hash

import "testing"

func TestCRC32C(t *testing.T) {
	// Reference value from RFC 3720 (iSCSI) for the standard check string.
	if got := CRC32C([]byte("123456789")); got != 0xE3069283 {
		t.Fatalf("CRC32C = %#x, want 0xe3069283", got)
	}
}

func TestNewCRC32CStreaming(t *testing.T) {
	h := NewCRC32C()
	h.Write([]byte("1234"))
	h.Write([]byte("56789"))
	if got := h.Sum32(); got != CRC32C([]byte("123456789")) {
		t.Fatalf("streaming sum %#x differs from one-shot", got)
	}
}
