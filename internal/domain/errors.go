package domain

import "errors"

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidSpan   = errors.New("invalid span literal")
	ErrInvalidKey    = errors.New("invalid key")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrEmptyTable    = errors.New("table has no header row")
	ErrNoOutputFile  = errors.New("downloader reported success but no output file was found")
)
