// Package services implements the submission pipeline, admission control, and
// the moderator retrieval gateway.
//
// Service methods return the tagged variants from the domain package (for
// example *domain.MissingFieldError or *domain.InsufficientStorageError) so
// that handlers can render them uniformly. repo.ErrNotFound passes through
// untouched; it is a transport-level 404, not a domain error.
package services

import (
	"errors"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/repo"
)

func asStatus(err error) (domain.StatusError, bool) {
	var se domain.StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }
