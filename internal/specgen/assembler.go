package specgen

import (
	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/models"
)

// AssembleSuccess builds the outcome for a completed pipeline. spec may be nil.
func AssembleSuccess(text string, spec models.ExtractedSpec) *models.PipelineOutcome {
	return &models.PipelineOutcome{
		Success:  true,
		Response: text,
		Specs:    spec,
	}
}

// AssembleError builds a failed outcome. Caller errors keep their message;
// anything else collapses to the generic internal-failure message so no
// detail leaks.
func AssembleError(err *apperrors.StandardError) *models.PipelineOutcome {
	if err == nil || !apperrors.IsCallerError(err.Code) {
		return AssembleInternalFault()
	}
	return &models.PipelineOutcome{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
	}
}

// AssembleInternalFault builds the generic internal-failure outcome.
func AssembleInternalFault() *models.PipelineOutcome {
	return &models.PipelineOutcome{
		Success: false,
		Error:   apperrors.MsgInternal,
		Code:    apperrors.ErrCodeInternal,
	}
}
