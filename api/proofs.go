package api

import (
	"encoding/json"
	"net/http"

	"github.com/spectre-protocol/spectre-shield/service"
)

// generateProof runs the full proving pipeline for the posted request.
// Failures map to the coded error taxonomy by the stage they occurred
// in.
func (a *API) generateProof(w http.ResponseWriter, r *http.Request) {
	req := &service.ProofRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	res, err := a.service.Prove(r.Context(), req)
	if err != nil {
		stageError(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

// stageError maps a stage-tagged pipeline failure to its API error.
func stageError(err error) Error {
	switch service.FailedStage(err) {
	case service.StageValidation:
		return ErrInvalidProofRequest.WithErr(err)
	case service.StageArtifacts:
		return ErrArtifactLoadFailed.WithErr(err)
	case service.StageHashInit:
		return ErrHasherInitFailed.WithErr(err)
	case service.StageProving:
		return ErrProofGenerationFailed.WithErr(err)
	case service.StageFormatting:
		return ErrProofFormattingFailed.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
