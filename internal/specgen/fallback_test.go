package specgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-configurator/internal/models"
)

func TestFallback_EchoesPromptOnce(t *testing.T) {
	f := NewFallbackSynthesizer()
	prompt := "I want a racing drone under $500"

	out := f.Synthesize(prompt)

	assert.Equal(t, 1, strings.Count(out, prompt))
	assert.Contains(t, out, "```json")
}

func TestFallback_SpecIsIndependentOfPrompt(t *testing.T) {
	f := NewFallbackSynthesizer()
	e := NewBraceExtractor()

	a, err := e.Extract(f.Synthesize("heavy lift octocopter"))
	require.NoError(t, err)
	b, err := e.Extract(f.Synthesize("tiny whoop"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, f.CannedSpec(), a)
}

func TestFallback_CannedSpecShape(t *testing.T) {
	spec := NewFallbackSynthesizer().CannedSpec()

	for _, key := range models.SpecKeys {
		assert.Contains(t, spec, key)
	}
	frame, ok := spec[models.SpecFrame].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "5-inch Freestyle Quadcopter", frame["type"])
}

func TestFallback_CannedSpecIsACopy(t *testing.T) {
	f := NewFallbackSynthesizer()

	spec := f.CannedSpec()
	spec["frame"] = "mutated"

	assert.NotEqual(t, "mutated", f.CannedSpec()["frame"])
}

func TestFallback_PromptWithBracesDefeatsExtraction(t *testing.T) {
	out := NewFallbackSynthesizer().Synthesize("build {fast}")

	_, err := NewBraceExtractor().Extract(out)
	assert.Error(t, err)
}
