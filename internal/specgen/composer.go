package specgen

import (
	"strings"

	"drone-configurator/internal/models"
)

// DefaultPreamble is the persona every provider is addressed with.
const DefaultPreamble = "You are an expert drone engineer and FPV build specialist. " +
	"You help hobbyists and professionals choose compatible components for multirotor builds, " +
	"balancing performance, flight time, payload and budget."

// Composer turns a caller prompt into the provider-agnostic instruction
// text. It holds no mutable state; Compose is a pure function of the
// preamble and the prompt.
type Composer struct {
	preamble string
}

// NewComposer returns a Composer using preamble, or DefaultPreamble when empty.
func NewComposer(preamble string) *Composer {
	if preamble == "" {
		preamble = DefaultPreamble
	}
	return &Composer{preamble: preamble}
}

// Compose builds the instruction text. The caller prompt is appended
// verbatim as the last line.
func (c *Composer) Compose(prompt string) string {
	var parts []string

	parts = append(parts, c.preamble)

	parts = append(parts, "\nRespond in exactly two parts:")
	parts = append(parts, "1. A conversational explanation of the recommended build and why the parts work together.")
	parts = append(parts, "2. A single fenced ```json code block at the very end of your answer containing the specification.")

	parts = append(parts, "\nThe JSON object may contain these keys: "+strings.Join(models.SpecKeys, ", ")+".")
	parts = append(parts, "Component keys (frame, motors, escs, battery, flightController, props) are objects with a \"type\" field plus any relevant details.")
	parts = append(parts, "Estimates (estimatedCost, estimatedFlightTime, estimatedPayload) are short strings.")
	parts = append(parts, "Do not use curly braces anywhere outside the JSON block.")

	parts = append(parts, "\nUser request: "+prompt)

	return strings.Join(parts, "\n")
}
