// Package services implements the domain operations on top of the repositories.
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyReported = errors.New("already reported")
)

// notFound turns a missing-row error into ErrNotFound naming what was missing.
// Other errors pass through unchanged.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
