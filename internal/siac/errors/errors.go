package errors

import (
	"fmt"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrUnauthorized        = fmt.Errorf("company not visible to user")
	ErrNoAuthenticatedUser = fmt.Errorf("no authenticated user")
	ErrDuplicateModule     = fmt.Errorf("module already installed")
)
