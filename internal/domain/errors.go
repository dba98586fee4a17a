package domain

import "errors"

// Error kinds surfaced by the chat pipeline.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("document not found")
	ErrNotIndexed     = errors.New("document not vectorized")
	ErrRetrieval      = errors.New("retrieval failed")
	ErrGeneration     = errors.New("generation failed")
	ErrStorage        = errors.New("storage failed")
	ErrInvalidRequest = errors.New("invalid request")
)

// Pipeline stages, used for error context and metrics labels.
const (
	StageAuthorize      = "authorize"
	StageCheckIndex     = "check_index"
	StagePersistUser    = "persist_user_turn"
	StageRetrieve       = "retrieve_context"
	StageAssemble       = "assemble_prompt"
	StageGenerate       = "generate"
	StagePersistAnswer  = "persist_assistant_turn"
	StageListTranscript = "list_transcript"
)

// StageError attaches an error kind and the failing stage to a cause.
type StageError struct {
	Kind  error
	Stage string
	Err   error
}

// NewStageError wraps err as a failure of kind at stage.
func NewStageError(kind error, stage string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage + ": " + e.Kind.Error()
	}
	return e.Stage + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind returns the taxonomy label for err, or "internal" when it has none.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotIndexed):
		return "not_indexed"
	case errors.Is(err, ErrRetrieval):
		return "retrieval"
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
