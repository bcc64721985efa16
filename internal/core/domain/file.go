package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// fingerprintHeadSize is how many leading bytes contribute to the fingerprint.
const fingerprintHeadSize = 8192

// FileRecord identifies one input file discovered in the inbox.
// It is created once on discovery and never mutated.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string

	// Size is the file size in bytes at discovery time.
	Size int64

	// Fingerprint is a cheap content identifier derived from the file
	// size and its leading bytes. It is not a full cryptographic digest
	// of the content; collisions are accepted as rare enough for
	// extraction caching.
	Fingerprint string
}

// NewFileRecord stats the file and computes its fingerprint.
func NewFileRecord(path string) (FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRecord{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return FileRecord{}, fmt.Errorf("%s: %w", path, ErrInvalidInput)
	}

	fp, err := fingerprint(path, info.Size())
	if err != nil {
		return FileRecord{}, err
	}

	return FileRecord{
		Path:        path,
		Size:        info.Size(),
		Fingerprint: fp,
	}, nil
}

// fingerprint hashes the decimal size string plus the first 8 KiB.
func fingerprint(path string, size int64) (string, error) {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(size, 10)))

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.CopyN(h, f, fingerprintHeadSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
