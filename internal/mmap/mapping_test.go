package mmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestOpenAndBytes(t *testing.T) {
	data := []byte("attention payload bytes")
	m, err := Open(writeTempFile(t, data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	if m.Size() != len(data) {
		t.Errorf("Size() = %d, want %d", m.Size(), len(data))
	}
	if !bytes.Equal(m.Bytes(), data) {
		t.Errorf("Bytes() mismatch")
	}
}

func TestOpenEmptyFile(t *testing.T) {
	m, err := Open(writeTempFile(t, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	if m.Size() != 0 {
		t.Errorf("Size() = %d, want 0", m.Size())
	}
}

func TestCloseIdempotent(t *testing.T) {
	m, err := Open(writeTempFile(t, []byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if m.Bytes() != nil {
		t.Errorf("Bytes() after Close should be nil")
	}
}

func TestRegionBounds(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	m, err := Open(writeTempFile(t, data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	r, err := m.Region(2, 4)
	if err != nil {
		t.Fatalf("Region: %v", err)
	}
	if !bytes.Equal(r.Bytes(), data[2:6]) {
		t.Errorf("Region bytes mismatch")
	}

	if _, err := m.Region(6, 4); err != ErrOutOfBounds {
		t.Errorf("out-of-bounds Region error = %v, want ErrOutOfBounds", err)
	}
	if _, err := m.Region(-1, 2); err != ErrOutOfBounds {
		t.Errorf("negative offset Region error = %v, want ErrOutOfBounds", err)
	}
}

func TestReadAt(t *testing.T) {
	data := []byte("0123456789")
	m, err := Open(writeTempFile(t, data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 4 || !bytes.Equal(buf, []byte("3456")) {
		t.Errorf("ReadAt = %q (%d bytes)", buf, n)
	}
}
