package apperrors

import "errors"

var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrIndexNotBuilt   = errors.New("context index has not been built")
	ErrMissingAPIKey   = errors.New("LLM API key is required")
	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrUnknownDriver   = errors.New("unknown database driver")
)
