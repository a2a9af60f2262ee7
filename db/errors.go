package db

import (
	"errors"
)

var ErrMissingURL = errors.New("missing database URL")
var ErrUnsupportedURL = errors.New("unsupported database URL")
var ErrSchemaMismatch = errors.New("schema mismatch")
