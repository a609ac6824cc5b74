// Package digest computes whole-file content digests used to detect identical or changed files.
// The default algorithm is fast and non-cryptographic; it identifies content and is not an integrity check.
package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/tyemirov/sitelens/internal/types"
)

const (
	// AlgorithmXXHash is the default 64-bit xxHash digest.
	AlgorithmXXHash = "xxhash"
	// AlgorithmMD5 produces the same digests as earlier site analysis bundles.
	AlgorithmMD5 = "md5"
	// AlgorithmSHA256 is for callers that need collision resistance.
	AlgorithmSHA256 = "sha256"

	// DefaultAlgorithm is used when no algorithm is configured.
	DefaultAlgorithm = AlgorithmXXHash

	unsupportedAlgorithmFormat = "unsupported hash algorithm %q"
)

// Hasher computes hex digests of byte content.
type Hasher interface {
	Algorithm() string
	SumBytes(data []byte) string
	SumFile(path string) (string, error)
}

type streamHasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// New returns the Hasher for algorithm; an empty name selects DefaultAlgorithm.
func New(algorithm string) (Hasher, error) {
	normalized := strings.ToLower(strings.TrimSpace(algorithm))
	switch normalized {
	case "", AlgorithmXXHash:
		return streamHasher{algorithm: AlgorithmXXHash, newHash: func() hash.Hash { return xxhash.New() }}, nil
	case AlgorithmMD5:
		return streamHasher{algorithm: AlgorithmMD5, newHash: md5.New}, nil
	case AlgorithmSHA256:
		return streamHasher{algorithm: AlgorithmSHA256, newHash: sha256.New}, nil
	default:
		return nil, fmt.Errorf(unsupportedAlgorithmFormat, algorithm)
	}
}

// Algorithms lists the accepted algorithm names.
func Algorithms() []string {
	return []string{AlgorithmXXHash, AlgorithmMD5, AlgorithmSHA256}
}

func (hasher streamHasher) Algorithm() string {
	return hasher.algorithm
}

func (hasher streamHasher) SumBytes(data []byte) string {
	state := hasher.newHash()
	state.Write(data)
	return hex.EncodeToString(state.Sum(nil))
}

// SumFile streams the file through the hash. Failures are *types.FileReadError.
//
// #nosec G304
func (hasher streamHasher) SumFile(path string) (string, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return "", &types.FileReadError{Path: path, Op: types.FileOperationHash, Err: openError}
	}
	defer fileHandle.Close()

	state := hasher.newHash()
	if _, copyError := io.Copy(state, fileHandle); copyError != nil {
		return "", &types.FileReadError{Path: path, Op: types.FileOperationHash, Err: copyError}
	}
	return hex.EncodeToString(state.Sum(nil)), nil
}
