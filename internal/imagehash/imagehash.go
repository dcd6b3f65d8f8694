// Package imagehash computes content identities for image files.
//
// The identity is a SHA-256 digest of the full byte stream, so two files with
// identical bytes share an identity regardless of where they live in the tree.
// The digest is the sole deduplication key for the sweep pipeline.
package imagehash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/objectscan/objectscan-go/internal/errors"
)

// DigestLength is the length of a hex-encoded content identity.
const DigestLength = sha256.Size * 2

// FileDigest returns the hex-encoded SHA-256 digest of the file contents.
// A read failure is transient from the pipeline's point of view: the caller
// must skip the image without marking it processed so it is retried on the
// next pass.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.New(err).
			Component("imagehash").
			Category(errors.CategoryImageHash).
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.New(err).
			Component("imagehash").
			Category(errors.CategoryImageHash).
			FileContext(path, 0).
			Build()
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s looks like a hex-encoded content identity.
// Used by the ledger loader to drop partially written trailing entries.
func Valid(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
