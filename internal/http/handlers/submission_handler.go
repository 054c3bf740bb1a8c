// Submission intake handlers.
//
//   - POST   /submit              (create)
//   - DELETE /submissions/{name}  (withdraw, not offered yet)
//
// The handler only parses the request: it reads the four form fields (keeping
// "absent" distinct from "empty"), opens the optional file part, and hands
// everything to the pipeline. All validation lives in the service.
package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/http/middleware"
	"github.com/runxiyu/ykps-sjdb/internal/services"
)

// fileField is the multipart part carrying the attachment.
const fileField = "file"

// SubmissionService is the intake pipeline consumed by the handlers.
type SubmissionService interface {
	Submit(ctx context.Context, f services.SubmissionFields, id *domain.Identity, att *domain.Attachment) (*domain.Submission, error)
	Withdraw(ctx context.Context, name string) error
}

// SubmissionHandler serves the intake routes.
type SubmissionHandler struct {
	svc SubmissionService
	// maxBytes mirrors the router's body limit so oversize requests are
	// reported with the configured number.
	maxBytes int64
	// multipartMemory is how much of a multipart body is held in memory
	// before parts spill to temporary files.
	multipartMemory int64
}

// NewSubmissionHandler wires the intake handlers.
func NewSubmissionHandler(svc SubmissionService, maxBytes, multipartMemory int64) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, maxBytes: maxBytes, multipartMemory: multipartMemory}
}

// Submit godoc
// @ID          submit
// @Summary     File a submission
// @Description Stores a report with an optional attached file. anon=yes publishes the
// @Description caller's name (requires the login proxy identity), anon=no stores no
// @Description name, anon=axolotl stores a fixed placeholder.
// @Tags        Submissions
// @Accept      multipart/form-data
// @Accept      x-www-form-urlencoded
// @Produce     json
//
// @Param       type    formData  string  true   "Submission category"
// @Param       origin  formData  string  true   "Where the report comes from"
// @Param       anon    formData  string  true   "Anonymity"  Enums(yes, no, axolotl)
// @Param       text    formData  string  true   "Report text (may be empty with a file)"
// @Param       file    formData  file    false  "Attachment"
//
// @Success     201  {object}  domain.Submission
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     413  {object}  handlers.ErrorResponse  "Request too large"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     507  {object}  handlers.ErrorResponse  "Insufficient storage"
// @Router      /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	req := c.Request
	if h.maxBytes > 0 && req.ContentLength > h.maxBytes {
		respondError(c, &domain.PayloadTooLargeError{Limit: h.maxBytes})
		return
	}

	if err := h.parseForm(req); err != nil {
		respondError(c, err)
		return
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()

	fields := services.SubmissionFields{
		Type:   formValue(req, "type"),
		Origin: formValue(req, "origin"),
		Anon:   formValue(req, "anon"),
		Text:   formValue(req, "text"),
	}

	att, closeFile, err := openAttachment(req)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	id := middleware.IdentityFrom(c)
	sub, err := h.svc.Submit(req.Context(), fields, &id, att)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().
		Str("record", deref(sub.RecordRef)).
		Str("attachment", deref(sub.AttachmentRef)).
		Str("anon_mode", string(sub.Mode)).
		Msg("submission stored")
	c.JSON(http.StatusCreated, sub)
}

// Withdraw godoc
// @ID          withdrawSubmission
// @Summary     Withdraw a submission
// @Description Recognized but not offered yet; always answers 501.
// @Tags        Submissions
// @Produce     json
// @Param       name  path  string  true  "Record name"
// @Failure     501  {object}  handlers.ErrorResponse  "Not implemented"
// @Router      /submissions/{name} [delete]
func (h *SubmissionHandler) Withdraw(c *gin.Context) {
	if err := h.svc.Withdraw(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseForm fills req.PostForm (and req.MultipartForm for multipart bodies).
// Body-limit violations become PayloadTooLargeError.
func (h *SubmissionHandler) parseForm(req *http.Request) error {
	err := req.ParseMultipartForm(h.multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = req.ParseForm()
	}
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &domain.PayloadTooLargeError{Limit: mbe.Limit}
	}
	// some multipart paths flatten the error to text
	if strings.Contains(err.Error(), "request body too large") {
		return &domain.PayloadTooLargeError{Limit: h.maxBytes}
	}
	return &badRequestError{msg: "malformed form body", err: err}
}

// formValue returns nil when key was not sent at all.
func formValue(req *http.Request, key string) *string {
	vs, ok := req.PostForm[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

// openAttachment returns the uploaded file, or nil when none was chosen.
// Browsers send an empty part for an untouched file input; multipart parses
// that as a plain value, so it never shows up here.
func openAttachment(req *http.Request) (*domain.Attachment, func(), error) {
	noop := func() {}
	if req.MultipartForm == nil {
		return nil, noop, nil
	}
	fhs := req.MultipartForm.File[fileField]
	if len(fhs) == 0 {
		return nil, noop, nil
	}
	fh := fhs[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, &domain.InternalError{Err: err}
	}
	return &domain.Attachment{Filename: fh.Filename, Size: fh.Size, Body: f}, closer(f), nil
}

func closer(f multipart.File) func() { return func() { _ = f.Close() } }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// badRequestError is a transport-only 400 for bodies that cannot be parsed.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Unwrap() error { return e.err }
func (e *badRequestError) Status() int   { return http.StatusBadRequest }
func (e *badRequestError) Code() string  { return ErrCodeBadRequest }
