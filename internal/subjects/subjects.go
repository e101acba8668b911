package subjects

import (
	"strings"

	apperrors "github.com/accesskeep/accesskeep/pkg/errors"
)

// Kind tags the resource family an approval governs. The approval protocol
// is identical across kinds; only subject lookup differs.
type Kind string

const (
	KindClient  Kind = "client"
	KindHunt    Kind = "hunt"
	KindCronJob Kind = "cron_job"
)

// Kinds lists every supported subject kind.
func Kinds() []Kind {
	return []Kind{KindClient, KindHunt, KindCronJob}
}

// ParseKind normalises and validates a kind tag.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindClient:
		return KindClient, nil
	case KindHunt:
		return KindHunt, nil
	case KindCronJob:
		return KindCronJob, nil
	default:
		return "", apperrors.NewInvalidArgument("unknown subject kind " + value)
	}
}

// ValidateID rejects subject identifiers that cannot be embedded in a
// hierarchical store key.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.NewInvalidArgument("subject id is required")
	}
	if strings.ContainsAny(id, "/ ") {
		return apperrors.NewInvalidArgument("subject id contains invalid characters")
	}
	return nil
}
