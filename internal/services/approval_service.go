package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/accesskeep/accesskeep/internal/models"
	"github.com/accesskeep/accesskeep/internal/store"
	"github.com/accesskeep/accesskeep/internal/subjects"
	"github.com/accesskeep/accesskeep/pkg/logger"
	"github.com/accesskeep/accesskeep/pkg/metrics"
)

// CreateApprovalInput describes a requestor asking to act on a subject.
type CreateApprovalInput struct {
	SubjectKind   subjects.Kind
	SubjectID     string
	Requestor     string
	Reason        string
	NotifiedUsers []string
	CCEmails      []string
}

// ListApprovalsInput filters the requestor's approvals. SubjectID is
// optional; when empty the listing spans all subjects of the kind.
type ListApprovalsInput struct {
	Requestor   string
	SubjectKind subjects.Kind
	SubjectID   string
}

// ApprovalService creates and reads approval requests. Requests are
// immutable once written; only grants accumulate afterwards.
type ApprovalService struct {
	store    store.Store
	subjects subjects.Resolver
	notifier *NotificationService
	ttl      time.Duration
	now      func() time.Time
}

// NewApprovalService constructs an ApprovalService. A zero ttl means
// approvals never expire on their own.
func NewApprovalService(st store.Store, resolver subjects.Resolver, notifier *NotificationService, ttl time.Duration) (*ApprovalService, error) {
	if st == nil {
		return nil, errors.New("approval service: store is required")
	}
	if resolver == nil {
		return nil, errors.New("approval service: subject resolver is required")
	}
	if notifier == nil {
		return nil, errors.New("approval service: notification service is required")
	}
	return &ApprovalService{
		store:    st,
		subjects: resolver,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Create persists a new approval request and notifies the requested
// approvers. Two identical calls produce two distinct approvals.
func (s *ApprovalService) Create(ctx context.Context, input CreateApprovalInput) (*ApprovalView, error) {
	ctx = ensureContext(ctx)

	requestor := strings.TrimSpace(input.Requestor)
	if requestor == "" {
		return nil, ErrActorRequired
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	subjectID := strings.TrimSpace(input.SubjectID)
	if err := s.subjects.Resolve(ctx, input.SubjectKind, subjectID); err != nil {
		return nil, err
	}

	record := ApprovalRecord{
		ID:              uuid.NewString(),
		SubjectKind:     input.SubjectKind,
		SubjectID:       subjectID,
		Requestor:       requestor,
		Reason:          reason,
		NotifiedUsers:   normaliseIDs(input.NotifiedUsers),
		CCEmails:        normaliseIDs(input.CCEmails),
		CreatedAtMicros: unixMicros(s.now()),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("approval service: marshal request: %w", err)
	}

	requestKey := store.RequestKey(string(record.SubjectKind), record.SubjectID, record.Requestor, record.ID)
	if err := s.store.Put(ctx, requestKey, payload); err != nil {
		return nil, fmt.Errorf("approval service: persist request: %w", err)
	}
	indexKey := store.IndexKey(record.Requestor, string(record.SubjectKind), record.ID)
	if err := s.store.Put(ctx, indexKey, []byte(requestKey)); err != nil {
		return nil, fmt.Errorf("approval service: persist index: %w", err)
	}

	s.notifyApprovers(ctx, record)
	metrics.ApprovalRequests.WithLabelValues(string(record.SubjectKind)).Inc()

	view := s.buildView(record, nil)
	return &view, nil
}

// Get returns the approval with grants resolved and validity recomputed.
func (s *ApprovalService) Get(ctx context.Context, kind subjects.Kind, subjectID, approvalID, requestor string) (*ApprovalView, error) {
	ctx = ensureContext(ctx)

	record, err := s.loadRecord(ctx, store.RequestKey(string(kind), subjectID, requestor, approvalID))
	if err != nil {
		return nil, err
	}
	return s.loadView(ctx, record)
}

// List returns the requestor's approvals, most-recently-created first.
func (s *ApprovalService) List(ctx context.Context, input ListApprovalsInput) ([]ApprovalView, error) {
	ctx = ensureContext(ctx)

	requestor := strings.TrimSpace(input.Requestor)
	if requestor == "" {
		return nil, ErrActorRequired
	}

	var requestKeys []string
	if subjectID := strings.TrimSpace(input.SubjectID); subjectID != "" {
		keys, err := s.store.ListChildren(ctx, store.ApprovalPrefix(string(input.SubjectKind), subjectID, requestor))
		if err != nil {
			return nil, fmt.Errorf("approval service: list approvals: %w", err)
		}
		for _, key := range keys {
			if store.IsRequestKey(key) {
				requestKeys = append(requestKeys, key)
			}
		}
	} else {
		indexKeys, err := s.store.ListChildren(ctx, store.IndexPrefix(requestor, string(input.SubjectKind)))
		if err != nil {
			return nil, fmt.Errorf("approval service: list approval index: %w", err)
		}
		for _, indexKey := range indexKeys {
			pointer, err := s.store.Get(ctx, indexKey)
			if err != nil {
				return nil, fmt.Errorf("approval service: resolve index %s: %w", indexKey, err)
			}
			requestKeys = append(requestKeys, string(pointer))
		}
	}

	views := make([]ApprovalView, 0, len(requestKeys))
	for _, key := range requestKeys {
		record, err := s.loadRecord(ctx, key)
		if err != nil {
			return nil, err
		}
		view, err := s.loadView(ctx, record)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Request.CreatedAtMicros != views[j].Request.CreatedAtMicros {
			return views[i].Request.CreatedAtMicros > views[j].Request.CreatedAtMicros
		}
		return views[i].Request.ID > views[j].Request.ID
	})
	return views, nil
}

func (s *ApprovalService) loadRecord(ctx context.Context, requestKey string) (ApprovalRecord, error) {
	payload, err := s.store.Get(ctx, requestKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return ApprovalRecord{}, ErrApprovalNotFound
	}
	if err != nil {
		return ApprovalRecord{}, fmt.Errorf("approval service: load request: %w", err)
	}

	var record ApprovalRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return ApprovalRecord{}, fmt.Errorf("approval service: decode request: %w", err)
	}
	return record, nil
}

func (s *ApprovalService) loadGrants(ctx context.Context, record ApprovalRecord) ([]GrantRecord, error) {
	prefix := store.GrantPrefix(string(record.SubjectKind), record.SubjectID, record.Requestor, record.ID)
	keys, err := s.store.ListChildren(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("approval service: list grants: %w", err)
	}

	grants := make([]GrantRecord, 0, len(keys))
	for _, key := range keys {
		payload, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("approval service: load grant %s: %w", key, err)
		}
		var grant GrantRecord
		if err := json.Unmarshal(payload, &grant); err != nil {
			return nil, fmt.Errorf("approval service: decode grant %s: %w", key, err)
		}
		grants = append(grants, grant)
	}

	sort.SliceStable(grants, func(i, j int) bool {
		if grants[i].GrantedAtMicros != grants[j].GrantedAtMicros {
			return grants[i].GrantedAtMicros < grants[j].GrantedAtMicros
		}
		return grants[i].Approver < grants[j].Approver
	})
	return grants, nil
}

// loadView assembles the derived read model. Validity is recomputed here on
// every call and never cached.
func (s *ApprovalService) loadView(ctx context.Context, record ApprovalRecord) (*ApprovalView, error) {
	grants, err := s.loadGrants(ctx, record)
	if err != nil {
		return nil, err
	}
	view := s.buildView(record, grants)
	return &view, nil
}

func (s *ApprovalService) buildView(record ApprovalRecord, grants []GrantRecord) ApprovalView {
	return ApprovalView{
		Request: record,
		Grants:  grants,
		IsValid: computeValidity(record, grants, s.now(), s.ttl),
	}
}

func (s *ApprovalService) notifyApprovers(ctx context.Context, record ApprovalRecord) {
	subject := fmt.Sprintf("%s/%s", record.SubjectKind, record.SubjectID)
	message := fmt.Sprintf("%s requests access to %s: %s", record.Requestor, subject, record.Reason)

	clientID := ""
	if record.SubjectKind == subjects.KindClient {
		clientID = record.SubjectID
	}

	for _, user := range record.NotifiedUsers {
		// Failure to notify must not fail the request itself; the approval
		// remains discoverable through listing.
		if _, err := s.notifier.Send(ctx, SendNotificationInput{
			UserID:   user,
			Type:     models.NotificationTypeApprovalRequest,
			Subject:  subject,
			Message:  message,
			ClientID: clientID,
		}); err != nil {
			logger.WithModule("approvals").Warn("notify approver failed",
				zap.String("user", user),
				zap.String("approval_id", record.ID),
				zap.Error(err))
		}
	}
}
