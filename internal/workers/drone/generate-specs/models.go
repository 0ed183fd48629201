// internal/workers/drone/generate-specs/models.go
package generatespecs

import (
	"encoding/json"

	"drone-configurator/internal/models"
)

// Input is read from the job variables. Other process variables are ignored.
type Input struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// Output is merged into the process variables on completion.
type Output struct {
	Success  bool                 `json:"success"`
	Response string               `json:"response"`
	Specs    models.ExtractedSpec `json:"specs,omitempty"`
}

// MarshalJSON keeps an empty specs object and drops only a missing one.
func (o Output) MarshalJSON() ([]byte, error) {
	type wire Output
	return json.Marshal(struct {
		wire
		Specs *models.ExtractedSpec `json:"specs,omitempty"`
	}{wire: wire(o), Specs: o.Specs.Present()})
}
