package services

import (
	"context"
	"errors"
	"strings"

	"github.com/accesskeep/accesskeep/internal/subjects"
	"github.com/accesskeep/accesskeep/pkg/metrics"
)

// DecisionReason is a machine-readable code explaining a denial.
type DecisionReason string

const (
	// ReasonNoApproval means the actor never requested access matching the check.
	ReasonNoApproval DecisionReason = "no_approval"
	// ReasonNotYetGranted means a matching request exists but holds no qualifying grant.
	ReasonNotYetGranted DecisionReason = "not_yet_granted"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Granted    bool           `json:"granted"`
	Reason     DecisionReason `json:"reason,omitempty"`
	ApprovalID string         `json:"approval_id,omitempty"`
}

// AuthorizeInput identifies the actor, subject and stated reason to evaluate.
type AuthorizeInput struct {
	Actor       string
	SubjectKind subjects.Kind
	SubjectID   string
	Reason      string
}

// AccessService evaluates, at operation time, whether an actor currently
// holds a valid approval for a subject. Every call reads current state;
// nothing is cached, so expiry and new grants take effect immediately.
type AccessService struct {
	approvals   *ApprovalService
	matchReason bool
}

// NewAccessService constructs an AccessService. When matchReason is true the
// actor's approval must carry the same stated reason; otherwise any valid
// approval for the subject by the actor qualifies.
func NewAccessService(approvals *ApprovalService, matchReason bool) (*AccessService, error) {
	if approvals == nil {
		return nil, errors.New("access service: approval service is required")
	}
	return &AccessService{approvals: approvals, matchReason: matchReason}, nil
}

// Authorize returns Granted when the most recent matching approval is valid,
// else Denied with a reason code.
func (s *AccessService) Authorize(ctx context.Context, input AuthorizeInput) (Decision, error) {
	ctx = ensureContext(ctx)

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return Decision{}, ErrActorRequired
	}

	subjectID := strings.TrimSpace(input.SubjectID)
	if err := subjects.ValidateID(subjectID); err != nil {
		return Decision{}, err
	}

	views, err := s.approvals.List(ctx, ListApprovalsInput{
		Requestor:   actor,
		SubjectKind: input.SubjectKind,
		SubjectID:   subjectID,
	})
	if err != nil {
		return Decision{}, err
	}

	reason := strings.TrimSpace(input.Reason)
	matched := false
	for _, view := range views {
		if s.matchReason && view.Request.Reason != reason {
			continue
		}
		matched = true
		if view.IsValid {
			metrics.AccessDecisions.WithLabelValues(string(input.SubjectKind), "granted").Inc()
			return Decision{Granted: true, ApprovalID: view.Request.ID}, nil
		}
	}

	decision := Decision{Granted: false, Reason: ReasonNoApproval}
	if matched {
		decision.Reason = ReasonNotYetGranted
	}
	metrics.AccessDecisions.WithLabelValues(string(input.SubjectKind), "denied").Inc()
	return decision, nil
}
