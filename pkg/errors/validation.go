package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// hexColorRe matches "#rgb" or "#rrggbb" hex color literals.
var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateFragmentSize validates the fragment window dimensions against the
// sample image dimensions. The window must be positive on both axes and fit
// inside the sample at least once.
func ValidateFragmentSize(fw, fh, sampleW, sampleH int) error {
	if fw <= 0 || fh <= 0 {
		return New(ErrCodeInvalidFragment, "fragment size must be positive, got %dx%d", fw, fh)
	}
	if fw > sampleW || fh > sampleH {
		return New(ErrCodeInvalidFragment,
			"fragment size %dx%d does not fit inside sample %dx%d", fw, fh, sampleW, sampleH)
	}
	return nil
}

// ValidateOutputSize validates the requested output dimensions against the
// fragment size. The solvable node grid is (outW-fw+1)×(outH-fh+1); both
// dimensions must be at least 1.
func ValidateOutputSize(outW, outH, fw, fh int) error {
	if outW <= 0 || outH <= 0 {
		return New(ErrCodeInvalidOutput, "output size must be positive, got %dx%d", outW, outH)
	}
	if outW < fw || outH < fh {
		return New(ErrCodeInvalidOutput,
			"output size %dx%d is smaller than fragment size %dx%d", outW, outH, fw, fh)
	}
	return nil
}

// ValidateHexColor validates a "#rrggbb"-style color literal.
func ValidateHexColor(s string) error {
	if s == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}
	if !hexColorRe.MatchString(s) {
		return New(ErrCodeInvalidColor, "invalid hex color: %q", s)
	}
	return nil
}

// ValidateSamplePath validates a sample image path for safety.
// It prevents path traversal into unexpected locations and rejects
// obviously malformed paths.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No backslashes (Windows-style paths)
func ValidateSamplePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "sample path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "sample path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "sample path contains control characters")
		}
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidPath, "sample path contains null byte")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "sample path cannot contain backslashes")
	}

	return nil
}

// ValidateRunID validates a run identifier for storage lookups.
// Run IDs are UUIDs generated by the pipeline; this check rejects anything
// that could be used for injection before it reaches a storage backend.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidConfig, "run ID cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidConfig, "run ID too long")
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return New(ErrCodeInvalidConfig, "run ID contains invalid character %q", r)
		}
	}
	return nil
}
