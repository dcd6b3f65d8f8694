package imagehash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDigestDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))

	first, err := FileDigest(path)
	require.NoError(t, err)
	second, err := FileDigest(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "digest must be deterministic")
	assert.Len(t, first, DigestLength)
	assert.True(t, Valid(first))
}

func TestFileDigestPathIndependent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("identical image bytes")

	pathA := filepath.Join(dir, "a", "chan1_1_photo.jpg")
	pathB := filepath.Join(dir, "b", "chan2_2_photo.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(pathA), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(pathB), 0o755))
	require.NoError(t, os.WriteFile(pathA, content, 0o644))
	require.NoError(t, os.WriteFile(pathB, content, 0o644))

	digestA, err := FileDigest(pathA)
	require.NoError(t, err)
	digestB, err := FileDigest(pathB)
	require.NoError(t, err)

	assert.Equal(t, digestA, digestB, "identical bytes must share an identity regardless of path")
}

func TestFileDigestDiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.jpg")
	pathB := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(pathA, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("second"), 0o644))

	digestA, err := FileDigest(pathA)
	require.NoError(t, err)
	digestB, err := FileDigest(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, digestA, digestB)
}

func TestFileDigestMissingFile(t *testing.T) {
	_, err := FileDigest(filepath.Join(t.TempDir(), "does-not-exist.jpg"))
	require.Error(t, err)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid digest", strings.Repeat("ab", 32), true},
		{"empty", "", false},
		{"too short", "abcd", false},
		{"truncated digest", strings.Repeat("ab", 31), false},
		{"non-hex characters", strings.Repeat("zz", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.input))
		})
	}
}
