package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// AttachmentRepo stores uploaded files in the upload area.
type AttachmentRepo struct {
	Area *Area
}

// NewAttachmentRepo returns a repo over the given area.
func NewAttachmentRepo(a *Area) *AttachmentRepo { return &AttachmentRepo{Area: a} }

// Store writes body to the upload area and returns the published basename,
// shaped as <unix-seconds>-<random>-<stem><ext>. The file is not visible
// under that name until every byte is durable.
func (r *AttachmentRepo) Store(ctx context.Context, originalName string, body io.Reader, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	st, err := r.Area.Stage()
	if err != nil {
		return "", err
	}
	defer st.Discard()

	if _, err := io.Copy(st, body); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stem, ext := SafeName(originalName)
	for i := 0; i < maxPublishAttempts; i++ {
		name := fmt.Sprintf("%d-%s-%s%s", now.Unix(), randomID(), stem, ext)
		err := st.Publish(name)
		if errors.Is(err, errNameTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return name, nil
	}
	return "", fmt.Errorf("%s: no free name after %d attempts", r.Area.Name, maxPublishAttempts)
}

// Path resolves a stored attachment to its absolute path.
func (r *AttachmentRepo) Path(name string) (string, error) { return r.Area.Resolve(name) }

// Remove deletes a stored attachment.
func (r *AttachmentRepo) Remove(name string) error { return r.Area.Remove(name) }
