package store

import "strings"

// Key schema for the approval store:
//
//	approval/{kind}/{subjectID}/{requestor}/{approvalID}/request
//	approval/{kind}/{subjectID}/{requestor}/{approvalID}/grant/{approver}
//	index/{requestor}/approval/{kind}/{approvalID} -> canonical request key
//
// Grants are one key per approver, so concurrent grants by different
// approvers never contend on a shared record.

// RequestKey returns the canonical key of an approval request record.
func RequestKey(kind, subjectID, requestor, approvalID string) string {
	return join("approval", kind, subjectID, requestor, approvalID, "request")
}

// GrantKey returns the key recording a single approver's grant.
func GrantKey(kind, subjectID, requestor, approvalID, approver string) string {
	return join("approval", kind, subjectID, requestor, approvalID, "grant", approver)
}

// GrantPrefix returns the prefix under which all grants of an approval live.
func GrantPrefix(kind, subjectID, requestor, approvalID string) string {
	return join("approval", kind, subjectID, requestor, approvalID, "grant") + "/"
}

// ApprovalPrefix returns the prefix covering every approval a requestor
// holds for one subject.
func ApprovalPrefix(kind, subjectID, requestor string) string {
	return join("approval", kind, subjectID, requestor) + "/"
}

// SubjectPrefix returns the prefix covering every approval for a subject,
// across requestors.
func SubjectPrefix(kind, subjectID string) string {
	return join("approval", kind, subjectID) + "/"
}

// IndexKey returns the per-requestor index key pointing at a request record.
func IndexKey(requestor, kind, approvalID string) string {
	return join("index", requestor, "approval", kind, approvalID)
}

// IndexPrefix returns the prefix of a requestor's approval index for a kind.
func IndexPrefix(requestor, kind string) string {
	return join("index", requestor, "approval", kind) + "/"
}

// IsRequestKey reports whether a key names a request record.
func IsRequestKey(key string) bool {
	return strings.HasSuffix(key, "/request")
}

// LastSegment returns the final path segment of a key.
func LastSegment(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func join(parts ...string) string {
	return strings.Join(parts, "/")
}
