package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/accesskeep/accesskeep/internal/middleware"
	"github.com/accesskeep/accesskeep/internal/services"
	"github.com/accesskeep/accesskeep/internal/subjects"
	"github.com/accesskeep/accesskeep/pkg/response"
)

// ApprovalHandler exposes approval requests, grants, and access checks.
type ApprovalHandler struct {
	approvals *services.ApprovalService
	grants    *services.GrantService
	access    *services.AccessService
}

// NewApprovalHandler constructs an ApprovalHandler.
func NewApprovalHandler(approvals *services.ApprovalService, grants *services.GrantService, access *services.AccessService) (*ApprovalHandler, error) {
	if approvals == nil || grants == nil || access == nil {
		return nil, errors.New("approval handler: services are required")
	}
	return &ApprovalHandler{approvals: approvals, grants: grants, access: access}, nil
}

type createApprovalRequest struct {
	Reason        string   `json:"reason" validate:"required,max=1024"`
	NotifiedUsers []string `json:"notified_users" validate:"max=64"`
	CCEmails      []string `json:"cc_emails" validate:"max=64"`
}

// Create files a new approval request for the subject named in the path.
func (h *ApprovalHandler) Create(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}

	var payload createApprovalRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	view, err := h.approvals.Create(requestContext(c), services.CreateApprovalInput{
		SubjectKind:   kind,
		SubjectID:     c.Param("subject_id"),
		Requestor:     middleware.Actor(c),
		Reason:        payload.Reason,
		NotifiedUsers: payload.NotifiedUsers,
		CCEmails:      payload.CCEmails,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// Get returns one approval with grants and validity recomputed now.
func (h *ApprovalHandler) Get(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}

	view, err := h.approvals.Get(requestContext(c), kind, c.Param("subject_id"), c.Param("approval_id"), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// List returns the caller's approvals of a kind, optionally scoped to one subject.
func (h *ApprovalHandler) List(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}

	views, err := h.approvals.List(requestContext(c), services.ListApprovalsInput{
		Requestor:   middleware.Actor(c),
		SubjectKind: kind,
		SubjectID:   c.Query("subject_id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, views)
}

// Grant endorses an approval request on behalf of the calling approver.
func (h *ApprovalHandler) Grant(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}

	view, err := h.grants.Grant(requestContext(c), services.GrantApprovalInput{
		SubjectKind: kind,
		SubjectID:   c.Param("subject_id"),
		ApprovalID:  c.Param("approval_id"),
		Approver:    middleware.Actor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Authorize evaluates whether the caller currently holds access to the subject.
func (h *ApprovalHandler) Authorize(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}

	decision, err := h.access.Authorize(requestContext(c), services.AuthorizeInput{
		Actor:       middleware.Actor(c),
		SubjectKind: kind,
		SubjectID:   c.Param("subject_id"),
		Reason:      c.Query("reason"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, decision)
}

func pathKind(c *gin.Context) (subjects.Kind, bool) {
	kind, err := subjects.ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return kind, true
}
