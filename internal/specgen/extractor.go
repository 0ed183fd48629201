package specgen

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/models"
)

// Extractor locates and decodes the structured block in a free-text answer.
// Implementations return a SPEC_NOT_FOUND or SPEC_MALFORMED StandardError
// instead of panicking.
type Extractor interface {
	Extract(text string) (models.ExtractedSpec, error)
}

// BraceExtractor takes everything from the first "{" to the last "}" in the
// text. Stray braces in prose around the real block produce a malformed
// candidate and therefore no spec.
type BraceExtractor struct{}

func NewBraceExtractor() *BraceExtractor {
	return &BraceExtractor{}
}

// Candidate returns the substring the extractor would decode.
func (BraceExtractor) Candidate(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func (e BraceExtractor) Extract(text string) (spec models.ExtractedSpec, err error) {
	candidate, ok := e.Candidate(text)
	if !ok {
		return nil, apperrors.NewSpecNotFoundError()
	}

	defer func() {
		if r := recover(); r != nil {
			spec = nil
			err = apperrors.NewSpecMalformedError(fmt.Errorf("panic while decoding: %v", r))
		}
	}()

	// Unmarshal rejects trailing data, so the candidate must be exactly one object.
	if err := json.Unmarshal([]byte(candidate), &spec); err != nil {
		return nil, apperrors.NewSpecMalformedError(err)
	}
	return spec, nil
}
