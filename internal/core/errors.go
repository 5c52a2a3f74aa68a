package core

import "errors"

var (
	ErrMissingID     = errors.New("missing transaction id")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRecord = errors.New("invalid record")
)
