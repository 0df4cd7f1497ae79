package api

import (
	"fmt"
	"net/http"
)

// Error codes in the 40001-49999 range are the user's fault and return
// HTTP Status 400 or 404, whatever is most appropriate. Error codes
// 50001-59999 are the server's fault and return HTTP Status 500 or
// 503.
//
// NEVER change any of the current error codes, only append new errors
// after the current last 4XXX or 5XXX. Gaps in the numbering were used
// in the past and must not be reused.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidProofRequest = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proof request")}
	ErrMalformedCommitment = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed commitment")}
	ErrNoteNotFound        = Error{Code: 40013, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("note not found")}
	ErrWithdrawalNotFound  = Error{Code: 40014, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("withdrawal not found")}
	ErrWithdrawalNotReady  = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("withdrawal not completable")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrArtifactLoadFailed         = Error{Code: 50010, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("circuit artifacts unavailable")}
	ErrHasherInitFailed           = Error{Code: 50011, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("hasher initialization failed")}
	ErrProofGenerationFailed      = Error{Code: 50012, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("proof generation failed")}
	ErrProofFormattingFailed      = Error{Code: 50013, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("proof formatting failed")}
	ErrStorageFailure             = Error{Code: 50014, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("storage operation failed")}
)
