package quiz

import "errors"

var (
	// ErrQuizNotFound means the requested quiz type is unknown to the provider.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrIndexOutOfRange means a navigation or answer target outside the question range.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrSessionNotActive means the operation is only valid while in progress.
	ErrSessionNotActive = errors.New("session not in progress")
	// ErrSessionNotFound means the session ID is unknown to the manager.
	ErrSessionNotFound = errors.New("session not found")
)
