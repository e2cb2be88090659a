package redact

import "errors"

var (
	// ErrInvalidRule is returned when a rule is missing fields or its pattern does not compile.
	ErrInvalidRule = errors.New("invalid secret rule")

	// ErrInvalidTOML is returned when a rules file cannot be decoded.
	ErrInvalidTOML = errors.New("invalid rules file")
)
