package services

import (
	"time"

	"github.com/accesskeep/accesskeep/internal/subjects"
)

// ApprovalRecord is the immutable request half of an approval, stored as
// JSON under its canonical store key. Grants accumulate as separate keys.
type ApprovalRecord struct {
	ID            string        `json:"id"`
	SubjectKind   subjects.Kind `json:"subject_kind"`
	SubjectID     string        `json:"subject_id"`
	Requestor     string        `json:"requestor"`
	Reason        string        `json:"reason"`
	NotifiedUsers []string      `json:"notified_users,omitempty"`
	CCEmails      []string      `json:"cc_emails,omitempty"`

	CreatedAtMicros int64 `json:"created_at"`
}

// GrantRecord is one approver's endorsement of a request.
type GrantRecord struct {
	ApprovalID      string `json:"approval_id"`
	Approver        string `json:"approver"`
	GrantedAtMicros int64  `json:"granted_at"`
}

// ApprovalView is the derived read model: the request, its grants in grant
// order, and validity recomputed at read time. It is never stored.
type ApprovalView struct {
	Request ApprovalRecord `json:"request"`
	Grants  []GrantRecord  `json:"grants"`
	IsValid bool           `json:"is_valid"`
}

// computeValidity reports whether at least one grant from an identity other
// than the requestor exists. A non-zero ttl additionally requires the grant
// to be younger than the ttl at evaluation time.
func computeValidity(record ApprovalRecord, grants []GrantRecord, now time.Time, ttl time.Duration) bool {
	return firstQualifyingGrant(record, grants, now, ttl) != nil
}

// firstQualifyingGrant returns the earliest grant that makes the approval
// valid at evaluation time, or nil when none qualifies. Ties on timestamp
// break on approver name so every evaluator picks the same grant.
func firstQualifyingGrant(record ApprovalRecord, grants []GrantRecord, now time.Time, ttl time.Duration) *GrantRecord {
	var first *GrantRecord
	for i := range grants {
		grant := &grants[i]
		if grant.Approver == record.Requestor {
			continue
		}
		if ttl > 0 && grant.GrantedAtMicros+ttl.Microseconds() <= unixMicros(now) {
			continue
		}
		if first == nil ||
			grant.GrantedAtMicros < first.GrantedAtMicros ||
			(grant.GrantedAtMicros == first.GrantedAtMicros && grant.Approver < first.Approver) {
			first = grant
		}
	}
	return first
}
