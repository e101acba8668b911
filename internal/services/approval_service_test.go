package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accesskeep/accesskeep/internal/models"
	"github.com/accesskeep/accesskeep/internal/subjects"
)

func TestCreateApprovalStartsInvalid(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	created, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "alice",
		Reason:      "investigating case 42",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Request.ID)
	require.False(t, created.IsValid)

	view, err := env.approvals.Get(ctx, subjects.KindClient, seedClientA, created.Request.ID, "alice")
	require.NoError(t, err)
	require.False(t, view.IsValid)
	require.Empty(t, view.Grants)
	require.Equal(t, "investigating case 42", view.Request.Reason)
}

func TestCreateApprovalRequiresReason(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	_, err := env.approvals.Create(context.Background(), CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "alice",
		Reason:      "   ",
	})
	require.ErrorIs(t, err, ErrReasonRequired)
}

func TestCreateApprovalRequiresAuthenticatedRequestor(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	_, err := env.approvals.Create(context.Background(), CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "",
		Reason:      "case 42",
	})
	require.ErrorIs(t, err, ErrActorRequired)
}

func TestCreateApprovalRejectsUnknownSubject(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	_, err := env.approvals.Create(context.Background(), CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   "C.ffffffffffffffff",
		Requestor:   "alice",
		Reason:      "case 42",
	})
	require.Error(t, err)
}

func TestCreateApprovalNotifiesApprovers(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	_, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind:   subjects.KindHunt,
		SubjectID:     seedHunt,
		Requestor:     "alice",
		Reason:        "expand hunt to all clients",
		NotifiedUsers: []string{"bob", "carol", "bob"}, // duplicates collapse
	})
	require.NoError(t, err)

	for _, user := range []string{"bob", "carol"} {
		count, err := env.notifications.PendingCount(ctx, user)
		require.NoError(t, err)
		require.EqualValues(t, 1, count, "user %s", user)

		pending, err := env.notifications.ListPending(ctx, user, nil)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, models.NotificationTypeApprovalRequest, pending[0].Type)
		require.Contains(t, pending[0].Message, "alice")
	}
}

func TestIdenticalCreateCallsProduceDistinctApprovals(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	input := CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "alice",
		Reason:      "case 42",
	}

	first, err := env.approvals.Create(ctx, input)
	require.NoError(t, err)
	second, err := env.approvals.Create(ctx, input)
	require.NoError(t, err)
	require.NotEqual(t, first.Request.ID, second.Request.ID)

	views, err := env.approvals.List(ctx, ListApprovalsInput{
		Requestor:   "alice",
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
}

func TestGetApprovalNotFound(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	_, err := env.approvals.Get(context.Background(), subjects.KindClient, seedClientA, "missing", "alice")
	require.ErrorIs(t, err, ErrApprovalNotFound)
}

func TestGetApprovalScopedToRequestor(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	created, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "alice",
		Reason:      "case 42",
	})
	require.NoError(t, err)

	// The same approval id is invisible under a different requestor.
	_, err = env.approvals.Get(ctx, subjects.KindClient, seedClientA, created.Request.ID, "bob")
	require.ErrorIs(t, err, ErrApprovalNotFound)
}

func TestListApprovalsOrderedMostRecentFirst(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	env.setClockSeconds(100)
	first, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
		Requestor:   "alice",
		Reason:      "first",
	})
	require.NoError(t, err)

	env.setClockSeconds(200)
	second, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientB,
		Requestor:   "alice",
		Reason:      "second",
	})
	require.NoError(t, err)

	// Unscoped listing spans subjects of the kind.
	views, err := env.approvals.List(ctx, ListApprovalsInput{
		Requestor:   "alice",
		SubjectKind: subjects.KindClient,
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, second.Request.ID, views[0].Request.ID)
	require.Equal(t, first.Request.ID, views[1].Request.ID)

	// Scoped listing restricts to the named subject.
	scoped, err := env.approvals.List(ctx, ListApprovalsInput{
		Requestor:   "alice",
		SubjectKind: subjects.KindClient,
		SubjectID:   seedClientA,
	})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, first.Request.ID, scoped[0].Request.ID)
}

func TestListApprovalsDoesNotLeakAcrossKinds(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	_, err := env.approvals.Create(ctx, CreateApprovalInput{
		SubjectKind: subjects.KindHunt,
		SubjectID:   seedHunt,
		Requestor:   "alice",
		Reason:      "hunt access",
	})
	require.NoError(t, err)

	views, err := env.approvals.List(ctx, ListApprovalsInput{
		Requestor:   "alice",
		SubjectKind: subjects.KindClient,
	})
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestCreateManyApprovalsYieldsDistinctIdentifiers(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	subjectsUnderTest := []string{seedClientA, seedClientB}
	ids := make(map[string]struct{})

	for _, subjectID := range subjectsUnderTest {
		for i := 0; i < 5; i++ {
			view, err := env.approvals.Create(ctx, CreateApprovalInput{
				SubjectKind: subjects.KindClient,
				SubjectID:   subjectID,
				Requestor:   "alice",
				Reason:      "bulk check",
			})
			require.NoError(t, err)
			ids[view.Request.ID] = struct{}{}
		}
	}
	require.Len(t, ids, 10)

	views, err := env.approvals.List(ctx, ListApprovalsInput{
		Requestor:   "alice",
		SubjectKind: subjects.KindClient,
	})
	require.NoError(t, err)
	require.Len(t, views, 10)
}
