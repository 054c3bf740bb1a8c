// Package services – RetrievalService
//
// Moderator read path. Every call is gated by a bearer token from a fixed
// allow-list loaded once at startup; the service never reloads it. Names are
// resolved through the repo areas, which only accept plain basenames.
package services

import (
	"context"
	"crypto/subtle"
	"sort"
	"strings"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
)

const bearerPrefix = "Bearer "

// RecordLister lists and resolves stored submission records.
type RecordLister interface {
	List(ctx context.Context) ([]string, error)
	Path(name string) (string, error)
}

// FileResolver resolves a stored attachment to a path on disk.
type FileResolver interface {
	Path(name string) (string, error)
}

// RetrievalService serves stored submissions and attachments to moderators.
type RetrievalService struct {
	Records     RecordLister
	Attachments FileResolver
	tokens      [][]byte
}

// NewRetrievalService copies tokens; empty entries are ignored.
func NewRetrievalService(records RecordLister, attachments FileResolver, tokens []string) *RetrievalService {
	s := &RetrievalService{Records: records, Attachments: attachments}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			s.tokens = append(s.tokens, []byte(t))
		}
	}
	return s
}

// Authorize checks an Authorization header value. It must be exactly
// "Bearer <token>" with a token from the allow-list.
func (s *RetrievalService) Authorize(header string) error {
	if header == "" {
		return unauthorized("missing bearer token")
	}
	tok, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || tok == "" {
		return unauthorized("malformed authorization header")
	}
	// compare against every entry so timing does not reveal the match index
	match := 0
	for _, t := range s.tokens {
		match |= subtle.ConstantTimeCompare([]byte(tok), t)
	}
	if match != 1 {
		return unauthorized("unknown token")
	}
	return nil
}

// ListSubmissions returns record names in ascending order.
func (s *RetrievalService) ListSubmissions(ctx context.Context) (names []string, err error) {
	defer func() { retrievalsTotal.WithLabelValues("list", outcomeLabel(err, "ok")).Inc() }()
	names, err = s.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// SubmissionPath resolves a record name for inline serving.
func (s *RetrievalService) SubmissionPath(ctx context.Context, name string) (p string, err error) {
	defer func() { retrievalsTotal.WithLabelValues("submission", outcomeLabel(err, "ok")).Inc() }()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Records.Path(name)
}

// AttachmentPath resolves an attachment name for download.
func (s *RetrievalService) AttachmentPath(ctx context.Context, name string) (p string, err error) {
	defer func() { retrievalsTotal.WithLabelValues("file", outcomeLabel(err, "ok")).Inc() }()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Attachments.Path(name)
}

func unauthorized(reason string) error {
	retrievalsTotal.WithLabelValues("authorize", "unauthorized").Inc()
	return &domain.UnauthorizedError{Reason: reason}
}
