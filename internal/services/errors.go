package services

import (
	"net/http"

	apperrors "github.com/accesskeep/accesskeep/pkg/errors"
)

var (
	// ErrApprovalNotFound indicates no approval exists under the requested identifier.
	ErrApprovalNotFound = apperrors.New("APPROVAL_NOT_FOUND", "Approval not found", http.StatusNotFound)
	// ErrSelfApproval prevents a requestor from granting their own request,
	// regardless of caller privilege.
	ErrSelfApproval = apperrors.New("SELF_APPROVAL", "Requestors cannot approve their own requests", http.StatusForbidden)
	// ErrActorRequired indicates the call arrived without an authenticated actor identity.
	ErrActorRequired = apperrors.New("ACTOR_REQUIRED", "An authenticated actor identity is required", http.StatusForbidden)
	// ErrReasonRequired rejects approval requests without a stated reason.
	ErrReasonRequired = apperrors.New("REASON_REQUIRED", "An access reason must be provided", http.StatusBadRequest)
)
