package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"hash"
	"io"
	"os"
)

const (
	ChecksumBlake3 = "blake3"
	ChecksumXXHash = "xxhash"
	// ChecksumMD5 produces the same digests as the legacy python watcher.
	ChecksumMD5 = "md5"
)

const chunkSize = 8192

func ValidChecksum(algo string) bool {
	switch algo {
	case "", ChecksumBlake3, ChecksumXXHash, ChecksumMD5:
		return true
	}
	return false
}

func newHasher(algo string) (hash.Hash, error) {
	switch algo {
	case "", ChecksumBlake3:
		return blake3.New(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	case ChecksumMD5:
		return md5.New(), nil
	}
	return nil, fmt.Errorf("unknown checksum algorithm %q", algo)
}

// HashFile digests the file content in fixed size chunks, so memory use does
// not grow with the file.
func HashFile(path, algo string) (string, error) {
	hasher, err := newHasher(algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := file.Read(buf)
		hasher.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file content: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
