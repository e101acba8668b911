package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/database/testutil"
	"github.com/accesskeep/accesskeep/internal/store"
	"github.com/accesskeep/accesskeep/internal/subjects"
)

// Seeded subjects available through testutil.WithSeedData.
const (
	seedClientA = "C.1000000000000000"
	seedClientB = "C.2000000000000000"
	seedHunt    = "H.00000001"
	seedCronJob = "InterrogateClients"
)

type testEnv struct {
	db            *gorm.DB
	store         *store.DatabaseStore
	notifications *NotificationService
	approvals     *ApprovalService
	grants        *GrantService
	access        *AccessService
}

type testEnvOptions struct {
	matchReason bool
	ttl         time.Duration
}

func newTestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	st, err := store.NewDatabaseStore(db)
	require.NoError(t, err)

	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	registry, err := subjects.NewRegistry(db)
	require.NoError(t, err)

	approvals, err := NewApprovalService(st, registry, notifications, opts.ttl)
	require.NoError(t, err)

	grants, err := NewGrantService(st, approvals, notifications)
	require.NoError(t, err)

	access, err := NewAccessService(approvals, opts.matchReason)
	require.NoError(t, err)

	return &testEnv{
		db:            db,
		store:         st,
		notifications: notifications,
		approvals:     approvals,
		grants:        grants,
		access:        access,
	}
}

// setClockSeconds pins every service clock to a fixed wall time, expressed
// in seconds since epoch.
func (e *testEnv) setClockSeconds(seconds int64) {
	now := func() time.Time { return time.UnixMicro(seconds * 1_000_000) }
	e.notifications.now = now
	e.approvals.now = now
	e.grants.now = now
}
