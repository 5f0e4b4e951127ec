package models

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashFile(t *testing.T) {
	// Spans several read chunks
	content := bytes.Repeat([]byte("pollwatch"), 3*chunkSize)
	path := writeFile(t, content)

	b3 := blake3.Sum256(content)
	xx := xxhash.Sum64(content)

	tests := []struct {
		algo string
		want string
	}{
		{"", hex.EncodeToString(b3[:])},
		{ChecksumBlake3, hex.EncodeToString(b3[:])},
		{ChecksumXXHash, fmt.Sprintf("%016x", xx)},
	}

	for _, tt := range tests {
		got, err := HashFile(path, tt.algo)
		if err != nil {
			t.Fatalf("HashFile(%q): %v", tt.algo, err)
		}
		if got != tt.want {
			t.Errorf("HashFile(%q) = %s, want %s", tt.algo, got, tt.want)
		}
	}
}

func TestHashFileMD5(t *testing.T) {
	path := writeFile(t, []byte("x"))

	got, err := HashFile(path, ChecksumMD5)
	if err != nil {
		t.Fatal(err)
	}
	if want := "9dd4e461268c8034f5c8564e155c67a6"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing"), ChecksumBlake3)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestHashFileUnknownAlgorithm(t *testing.T) {
	path := writeFile(t, []byte("x"))

	if _, err := HashFile(path, "crc32"); err == nil {
		t.Fatal("expected an error for an unknown algorithm")
	}
	if ValidChecksum("crc32") {
		t.Error("crc32 must not be a valid checksum")
	}
}
