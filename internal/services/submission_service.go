// Package services – SubmissionService
//
// This file implements the intake pipeline: field validation, anonymity
// resolution, admission control, attachment persistence, and record
// persistence, in that order. Every check that can reject a request runs
// before the first file is created, so a rejected submission leaves nothing
// behind. Once an attachment is stored, a failure to persist the record
// removes it again on a best-effort basis.
//
// Observability: Submit is OpenTelemetry-instrumented and counts outcomes in
// sjdb_submissions_total.
package services

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/observability"
)

// AttachmentStore persists uploaded files.
type AttachmentStore interface {
	// Store writes body atomically and returns the stored basename.
	Store(ctx context.Context, originalName string, body io.Reader, now time.Time) (string, error)
	// Remove deletes a stored file.
	Remove(name string) error
}

// RecordStore persists submission records.
type RecordStore interface {
	// Save writes s atomically, sets s.RecordRef, and returns the basename.
	Save(ctx context.Context, s *domain.Submission) (string, error)
}

// CapacityChecker is the admission gate consulted before storing a file.
type CapacityChecker interface {
	CheckCapacity(ctx context.Context) error
}

// SubmissionFields are the raw form values. A nil pointer means the field was
// not sent at all; an empty string means it was sent empty.
type SubmissionFields struct {
	Type   *string `form:"type"   validate:"required"`
	Origin *string `form:"origin" validate:"required"`
	Anon   *string `form:"anon"   validate:"required"`
	Text   *string `form:"text"   validate:"required"`
}

var fieldValidator = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report form names ("type") instead of Go names ("Type")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// SubmissionService runs the intake pipeline.
type SubmissionService struct {
	Attachments AttachmentStore
	Records     RecordStore
	// Admission may be nil to disable the free-space gate.
	Admission CapacityChecker
	// PseudonymLabel is stored as the name for anon=axolotl.
	PseudonymLabel string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewSubmissionService wires a pipeline with the default pseudonym label.
func NewSubmissionService(att AttachmentStore, rec RecordStore, adm CapacityChecker) *SubmissionService {
	return &SubmissionService{
		Attachments:    att,
		Records:        rec,
		Admission:      adm,
		PseudonymLabel: domain.DefaultLabel,
		Now:            time.Now,
	}
}

// Submit validates the request and persists it. att is nil when no file was
// uploaded; id is nil when the caller is not authenticated.
func (s *SubmissionService) Submit(ctx context.Context, f SubmissionFields, id *domain.Identity, att *domain.Attachment) (sub *domain.Submission, err error) {
	ctx, span := observability.Tracer("services/submission").Start(ctx, "Submit",
		trace.WithAttributes(attribute.Bool("submission.has_attachment", att != nil)),
	)
	defer func() {
		submissionsTotal.WithLabelValues(outcomeLabel(err, "created")).Inc()
		observability.FailSpan(span, err)
		span.End()
	}()

	if err := validateFields(f); err != nil {
		return nil, err
	}
	mode, name, err := s.resolveAnonymity(*f.Anon, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("submission.anon_mode", string(mode)))

	if strings.TrimSpace(*f.Text) == "" && att == nil {
		return nil, &domain.EmptySubmissionError{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var attRef *string
	if att != nil {
		if s.Admission != nil {
			if err := s.Admission.CheckCapacity(ctx); err != nil {
				return nil, err
			}
		}
		ref, err := s.Attachments.Store(ctx, att.Filename, att.Body, s.now())
		if err != nil {
			return nil, err
		}
		attRef = &ref
		if att.Size > 0 {
			attachmentBytes.Observe(float64(att.Size))
		}
	}

	rec := &domain.Submission{
		Type:          *f.Type,
		Origin:        *f.Origin,
		Mode:          mode,
		DisplayName:   name,
		Text:          *f.Text,
		Timestamp:     s.now().UTC().Unix(),
		AttachmentRef: attRef,
	}
	if _, err := s.Records.Save(ctx, rec); err != nil {
		if attRef != nil {
			if rmErr := s.Attachments.Remove(*attRef); rmErr != nil {
				zerolog.Ctx(ctx).Error().Err(rmErr).Str("attachment", *attRef).
					Msg("orphaned attachment after failed record write")
			}
		}
		return nil, err
	}
	return rec, nil
}

// Withdraw is recognized but not offered yet.
func (s *SubmissionService) Withdraw(_ context.Context, _ string) error {
	return &domain.NotImplementedError{Feature: "submission withdrawal"}
}

// validateFields enforces presence of all four fields and non-blank type and
// origin. The first problem in form order is reported.
func validateFields(f SubmissionFields) error {
	if err := fieldValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &domain.MissingFieldError{Field: verrs[0].Field()}
		}
		return &domain.InternalError{Err: err}
	}
	if strings.TrimSpace(*f.Type) == "" {
		return &domain.MissingFieldError{Field: "type"}
	}
	if strings.TrimSpace(*f.Origin) == "" {
		return &domain.MissingFieldError{Field: "origin"}
	}
	return nil
}

// resolveAnonymity maps the anon form value to a mode and the name to store.
func (s *SubmissionService) resolveAnonymity(anon string, id *domain.Identity) (domain.AnonymityMode, *string, error) {
	switch anon {
	case domain.AnonYes:
		if id == nil || !id.Authenticated || strings.TrimSpace(id.DisplayName) == "" {
			return "", nil, &domain.IdentityRequiredError{}
		}
		name := id.DisplayName
		return domain.Revealed, &name, nil
	case domain.AnonNo:
		return domain.Hidden, nil, nil
	case domain.AnonAxolotl:
		label := s.PseudonymLabel
		if label == "" {
			label = domain.DefaultLabel
		}
		return domain.Pseudonymous, &label, nil
	default:
		return "", nil, &domain.InvalidAnonymityError{Value: anon, Accepted: domain.AcceptedAnonValues}
	}
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
