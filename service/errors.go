package service

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage a failure originated in. The
// stages run strictly in this order; a failure in one stage prevents
// all later stages from running.
type Stage string

const (
	StageValidation Stage = "validation"
	StageArtifacts  Stage = "artifacts"
	StageHashInit   Stage = "hash_init"
	StageProving    Stage = "proving"
	StageFormatting Stage = "formatting"
)

// StageError tags a failure with the stage it occurred in, so callers
// can present where the pipeline stopped and decide what is safe to
// retry.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// FailedStage returns the stage a pipeline error originated in, or an
// empty Stage if the error is not stage-tagged.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
