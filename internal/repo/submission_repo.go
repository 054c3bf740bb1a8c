package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
)

const recordExt = ".json"

// SubmissionRepo persists submission records in the submission area, one
// JSON document per file.
type SubmissionRepo struct {
	Area *Area
}

// NewSubmissionRepo returns a repo over the given area.
func NewSubmissionRepo(a *Area) *SubmissionRepo { return &SubmissionRepo{Area: a} }

// Save writes s under <timestamp>-<random>.json and sets s.RecordRef to that
// basename. The record embeds its own name, so a collision restages the
// document with a fresh name instead of overwriting.
func (r *SubmissionRepo) Save(ctx context.Context, s *domain.Submission) (string, error) {
	for i := 0; i < maxPublishAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := fmt.Sprintf("%d-%s%s", s.Timestamp, randomID(), recordExt)
		rec := *s
		rec.RecordRef = &name

		err := r.write(&rec, name)
		if errors.Is(err, errNameTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		*s = rec
		return name, nil
	}
	return "", fmt.Errorf("%s: no free name after %d attempts", r.Area.Name, maxPublishAttempts)
}

func (r *SubmissionRepo) write(rec *domain.Submission, name string) error {
	st, err := r.Area.Stage()
	if err != nil {
		return err
	}
	defer st.Discard()

	enc := json.NewEncoder(st)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		// Staging.Write already classified storage errors
		var se domain.StatusError
		if errors.As(err, &se) {
			return err
		}
		return fmt.Errorf("%s: encode record: %w", r.Area.Name, err)
	}
	return st.Publish(name)
}

// Load reads and decodes a stored record.
func (r *SubmissionRepo) Load(name string) (*domain.Submission, error) {
	p, err := r.Area.Resolve(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%s: read %q: %w", r.Area.Name, name, err)
	}
	var s domain.Submission
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%s: decode %q: %w", r.Area.Name, name, err)
	}
	return &s, nil
}

// List returns every published file name in lexical order, which is
// chronological because names start with the timestamp.
func (r *SubmissionRepo) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Area.List()
}

// Path resolves a stored record to its absolute path.
func (r *SubmissionRepo) Path(name string) (string, error) { return r.Area.Resolve(name) }
