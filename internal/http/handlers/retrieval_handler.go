// Moderator retrieval handlers.
//
//   - GET /submissions          (list record names, oldest first)
//   - GET /submissions/{name}   (record JSON, inline)
//   - GET /files/{name}         (attachment download)
//
// Bearer authorization is enforced by middleware.BearerAuth on the route
// group; these handlers only resolve names and stream files.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RetrievalService is the moderator read path consumed by the handlers.
type RetrievalService interface {
	ListSubmissions(ctx context.Context) ([]string, error)
	SubmissionPath(ctx context.Context, name string) (string, error)
	AttachmentPath(ctx context.Context, name string) (string, error)
}

// SubmissionList is the listing response.
type SubmissionList struct {
	// Record names in chronological order
	Submissions []string `json:"submissions" example:"1700000000-3f9a1c2b7d4e.json"`
}

// RetrievalHandler serves the moderator routes.
type RetrievalHandler struct {
	svc RetrievalService
}

// NewRetrievalHandler wires the moderator handlers.
func NewRetrievalHandler(svc RetrievalService) *RetrievalHandler {
	return &RetrievalHandler{svc: svc}
}

// ListSubmissions godoc
// @ID          listSubmissions
// @Summary     List submissions
// @Description Returns stored record names, oldest first.
// @Tags        Moderation
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SubmissionList
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or unknown token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /submissions [get]
func (h *RetrievalHandler) ListSubmissions(c *gin.Context) {
	names, err := h.svc.ListSubmissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, SubmissionList{Submissions: names})
}

// GetSubmission godoc
// @ID          getSubmission
// @Summary     Read a submission record
// @Tags        Moderation
// @Produce     json
// @Security    BearerAuth
// @Param       name  path  string  true  "Record name"
// @Success     200  {object}  domain.Submission
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or unknown token"
// @Failure     404  {object}  handlers.ErrorResponse  "No such record"
// @Router      /submissions/{name} [get]
func (h *RetrievalHandler) GetSubmission(c *gin.Context) {
	p, err := h.svc.SubmissionPath(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline")
	c.File(p)
}

// GetFile godoc
// @ID          getFile
// @Summary     Download an attachment
// @Tags        Moderation
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       name  path  string  true  "Attachment name"
// @Success     200  {file}    file
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or unknown token"
// @Failure     404  {object}  handlers.ErrorResponse  "No such file"
// @Router      /files/{name} [get]
func (h *RetrievalHandler) GetFile(c *gin.Context) {
	name := c.Param("name")
	p, err := h.svc.AttachmentPath(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(p, name)
}
