package core

import "errors"

var (
	ErrMissingVerifyParams = errors.New("missing verification parameters")
	ErrVerifyRejected      = errors.New("verification rejected")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMissingParams       = errors.New("missing required parameters: to, text")
	ErrAuthDisabled        = errors.New("authentication not enabled")
	ErrInvalidKey          = errors.New("invalid api key")
)
