package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/accesskeep/accesskeep/internal/models"
	"github.com/accesskeep/accesskeep/internal/store"
	"github.com/accesskeep/accesskeep/internal/subjects"
	"github.com/accesskeep/accesskeep/pkg/logger"
	"github.com/accesskeep/accesskeep/pkg/metrics"
)

// GrantApprovalInput identifies the approval to endorse and the endorsing actor.
type GrantApprovalInput struct {
	SubjectKind subjects.Kind
	SubjectID   string
	ApprovalID  string
	Approver    string
}

// GrantService records grants against approval requests. Each grant is one
// per-approver store key, so concurrent grants by different approvers are
// both durably recorded without a read-modify-write race.
type GrantService struct {
	store     store.Store
	approvals *ApprovalService
	notifier  *NotificationService
	now       func() time.Time
}

// NewGrantService constructs a GrantService.
func NewGrantService(st store.Store, approvals *ApprovalService, notifier *NotificationService) (*GrantService, error) {
	if st == nil {
		return nil, errors.New("grant service: store is required")
	}
	if approvals == nil {
		return nil, errors.New("grant service: approval service is required")
	}
	if notifier == nil {
		return nil, errors.New("grant service: notification service is required")
	}
	return &GrantService{
		store:     st,
		approvals: approvals,
		notifier:  notifier,
		now:       time.Now,
	}, nil
}

// Grant records the approver's endorsement and returns the refreshed view.
// Re-granting by the same approver is an idempotent no-op. The first
// qualifying grant notifies the requestor.
func (s *GrantService) Grant(ctx context.Context, input GrantApprovalInput) (*ApprovalView, error) {
	ctx = ensureContext(ctx)

	approver := strings.TrimSpace(input.Approver)
	if approver == "" {
		return nil, ErrActorRequired
	}

	record, err := s.findRecord(ctx, input)
	if err != nil {
		return nil, err
	}

	// Enforced regardless of caller privilege.
	if approver == record.Requestor {
		return nil, ErrSelfApproval
	}

	grants, err := s.approvals.loadGrants(ctx, record)
	if err != nil {
		return nil, err
	}

	grantKey := store.GrantKey(string(record.SubjectKind), record.SubjectID, record.Requestor, record.ID, approver)
	if _, err := s.store.Get(ctx, grantKey); err == nil {
		// Already granted by this approver; keep the original timestamp.
		view := s.approvals.buildView(record, grants)
		return &view, nil
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("grant service: check grant: %w", err)
	}

	grant := GrantRecord{
		ApprovalID:      record.ID,
		Approver:        approver,
		GrantedAtMicros: unixMicros(s.now()),
	}
	payload, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("grant service: marshal grant: %w", err)
	}
	if err := s.store.Put(ctx, grantKey, payload); err != nil {
		return nil, fmt.Errorf("grant service: persist grant: %w", err)
	}

	metrics.ApprovalGrants.WithLabelValues(string(record.SubjectKind)).Inc()

	view, err := s.approvals.loadView(ctx, record)
	if err != nil {
		return nil, err
	}

	// Notify only when this approver's grant is the one that made the
	// approval valid, judged against the post-write snapshot. Two approvers
	// racing on the first grant can each see their own grant as earliest
	// before the other's write lands, so the transition notification is
	// at-least-once, never lost.
	if first := firstQualifyingGrant(record, view.Grants, s.now(), s.approvals.ttl); first != nil && first.Approver == approver {
		s.notifyRequestor(ctx, record, approver)
	}
	return view, nil
}

// findRecord locates the approval by (kind, subject, approval id) without
// knowing the requestor, scanning the subject's approval namespace.
func (s *GrantService) findRecord(ctx context.Context, input GrantApprovalInput) (ApprovalRecord, error) {
	subjectID := strings.TrimSpace(input.SubjectID)
	approvalID := strings.TrimSpace(input.ApprovalID)
	if subjectID == "" || approvalID == "" {
		return ApprovalRecord{}, ErrApprovalNotFound
	}

	keys, err := s.store.ListChildren(ctx, store.SubjectPrefix(string(input.SubjectKind), subjectID))
	if err != nil {
		return ApprovalRecord{}, fmt.Errorf("grant service: list subject approvals: %w", err)
	}

	suffix := "/" + approvalID + "/request"
	for _, key := range keys {
		if strings.HasSuffix(key, suffix) {
			return s.approvals.loadRecord(ctx, key)
		}
	}
	return ApprovalRecord{}, ErrApprovalNotFound
}

func (s *GrantService) notifyRequestor(ctx context.Context, record ApprovalRecord, approver string) {
	subject := fmt.Sprintf("%s/%s", record.SubjectKind, record.SubjectID)

	clientID := ""
	if record.SubjectKind == subjects.KindClient {
		clientID = record.SubjectID
	}

	if _, err := s.notifier.Send(ctx, SendNotificationInput{
		UserID:   record.Requestor,
		Type:     models.NotificationTypeApprovalGranted,
		Subject:  subject,
		Message:  fmt.Sprintf("%s granted your access request for %s", approver, subject),
		ClientID: clientID,
	}); err != nil {
		logger.WithModule("grants").Warn("notify requestor failed",
			zap.String("user", record.Requestor),
			zap.String("approval_id", record.ID),
			zap.Error(err))
	}
}
