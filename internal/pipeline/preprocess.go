package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// PreprocessInfo identifies the prepared input image.
type PreprocessInfo struct {
	ImageRef  string
	SHA256    string
	SizeBytes int64
}

// Preprocessor prepares an image reference before OCR. Implementations may
// rewrite ImageRef to point at a cleaned-up copy.
type Preprocessor interface {
	Prepare(ctx context.Context, imageRef string) (PreprocessInfo, error)
}

// hashPreprocessor is the default: it leaves the image untouched and records
// its content hash so runs are traceable to an exact input.
type hashPreprocessor struct{}

func (hashPreprocessor) Prepare(ctx context.Context, imageRef string) (PreprocessInfo, error) {
	f, err := os.Open(imageRef)
	if err != nil {
		return PreprocessInfo{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return PreprocessInfo{}, fmt.Errorf("hash image: %w", err)
	}
	return PreprocessInfo{
		ImageRef:  imageRef,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
	}, nil
}
