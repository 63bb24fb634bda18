package impersonation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
	"github.com/rentora/rentora-admin/internal/token"
)

// memRepo mimics the storage contract in memory, including the partial
// unique index on active pairs and the compare-and-swap on Finish.
type memRepo struct {
	sessions map[string]Session
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]Session)}
}

func (r *memRepo) Create(_ context.Context, session Session) (Session, error) {
	for _, existing := range r.sessions {
		if existing.Status == StatusActive &&
			existing.ImpersonatorID == session.ImpersonatorID &&
			existing.ImpersonatedID == session.ImpersonatedID {
			return Session{}, fmt.Errorf("active session already exists for this pair: %w", shared.ErrConflictingTransition)
		}
	}
	session.Status = StatusActive
	r.sessions[session.ID] = session
	return session, nil
}

func (r *memRepo) Get(_ context.Context, id string) (Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, shared.ErrNotFound
	}
	return session, nil
}

func (r *memRepo) List(_ context.Context, impersonatorID int64) ([]Session, error) {
	var out []Session
	for _, session := range r.sessions {
		if impersonatorID == 0 || session.ImpersonatorID == impersonatorID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r *memRepo) Finish(_ context.Context, id string, status Status, endedAt time.Time, terminatedBy *int64, terminationReason string) (Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, shared.ErrNotFound
	}
	if session.Status != StatusActive {
		return Session{}, shared.ErrConflictingTransition
	}
	session.Status = status
	session.EndedAt = &endedAt
	session.TerminatedBy = terminatedBy
	session.TerminationReason = terminationReason
	r.sessions[id] = session
	return session, nil
}

func (r *memRepo) ExpiredActive(_ context.Context, now time.Time, limit int) ([]Session, error) {
	var out []Session
	for _, session := range r.sessions {
		if session.Expired(now) {
			out = append(out, session)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubDirectory struct {
	roles map[int64]authz.Role
}

func (d *stubDirectory) RoleOf(_ context.Context, userID int64) (authz.Role, error) {
	role, ok := d.roles[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (s *recordingSink) Record(_ context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

type recordingNotifier struct {
	started []Session
	ended   []Session
}

func (n *recordingNotifier) SessionStarted(_ context.Context, session Session) {
	n.started = append(n.started, session)
}

func (n *recordingNotifier) SessionEnded(_ context.Context, session Session) {
	n.ended = append(n.ended, session)
}

type fixture struct {
	service  *Service
	repo     *memRepo
	sink     *recordingSink
	notifier *recordingNotifier
	tokens   *token.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	tokens := token.NewManager("test-secret", time.Hour, 30*time.Minute)
	directory := &stubDirectory{roles: map[int64]authz.Role{
		1: authz.RoleSuperadmin,
		2: authz.RoleAdmin,
		3: authz.RoleCSM,
		4: authz.RoleUser,
		5: authz.RoleUser,
		6: authz.RoleAdmin,
	}}
	svc := NewService(repo, directory, tokens, sink, notifier, nil)
	return &fixture{service: svc, repo: repo, sink: sink, notifier: notifier, tokens: tokens}
}

var (
	superadmin = authz.Actor{ID: 1, Role: authz.RoleSuperadmin}
	admin      = authz.Actor{ID: 2, Role: authz.RoleAdmin}
	csm        = authz.Actor{ID: 3, Role: authz.RoleCSM}
)

func TestStartCreatesActiveSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "debugging a billing report")
	require.NoError(t, err)
	require.Equal(t, StatusActive, result.Session.Status)
	require.Equal(t, int64(2), result.Session.ImpersonatorID)
	require.Equal(t, int64(4), result.Session.ImpersonatedID)
	require.Equal(t, authz.RoleUser, result.Session.ImpersonatedRole)
	require.NotEmpty(t, result.Token)

	claims, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, token.TypeImpersonation, claims.TokenType)
	require.Equal(t, result.Session.ID, claims.SessionID)
	require.Equal(t, int64(2), claims.ImpersonatorID)
	require.Equal(t, int64(4), claims.UserID)

	require.Len(t, fx.sink.entries, 1)
	require.Equal(t, "impersonation.start", fx.sink.entries[0].Action)
	require.Len(t, fx.notifier.started, 1)
}

func TestStartDeniedByRoleMatrix(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// admin may not impersonate a superadmin, another admin, or themselves.
	for _, target := range []int64{1, 6, 2} {
		_, err := fx.service.Start(ctx, admin, target, "x")
		require.ErrorIs(t, err, shared.ErrInsufficientRole)
	}

	_, err := fx.service.Start(ctx, csm, 4, "x")
	require.ErrorIs(t, err, shared.ErrInsufficientRole)

	// superadmin may impersonate anyone, including another superadmin.
	_, err = fx.service.Start(ctx, superadmin, 2, "incident response")
	require.NoError(t, err)
}

func TestStartRejectsNestedImpersonation(t *testing.T) {
	fx := newFixture(t)
	impersonator := int64(1)
	assumed := authz.Actor{ID: 2, Role: authz.RoleAdmin, ImpersonatorID: &impersonator, SessionID: "s-1"}

	_, err := fx.service.Start(context.Background(), assumed, 4, "x")
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
}

func TestStartUnknownTarget(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.service.Start(context.Background(), admin, 999, "x")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStartDuplicatePairConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.service.Start(ctx, admin, 4, "first")
	require.NoError(t, err)

	_, err = fx.service.Start(ctx, admin, 4, "second")
	require.ErrorIs(t, err, shared.ErrConflictingTransition)

	// A different pair is fine.
	_, err = fx.service.Start(ctx, admin, 5, "other target")
	require.NoError(t, err)
}

func TestValidateHappyPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)
	claims, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)

	session, err := fx.service.Validate(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, result.Session.ID, session.ID)
}

func TestValidateRejectsEndedSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)
	claims, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)

	_, err = fx.service.End(ctx, admin, result.Session.ID, "")
	require.NoError(t, err)

	_, err = fx.service.Validate(ctx, claims)
	require.ErrorIs(t, err, shared.ErrInvalidImpersonationState)
}

func TestValidateLazilyExpiresSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)
	claims, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)

	// Jump the service clock past the session expiry.
	fx.service.now = func() time.Time { return result.Session.ExpiresAt.Add(time.Minute) }

	_, err = fx.service.Validate(ctx, claims)
	require.ErrorIs(t, err, shared.ErrInvalidImpersonationState)

	stored, err := fx.repo.Get(ctx, result.Session.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, stored.Status)
	require.NotNil(t, stored.EndedAt)
}

func TestValidateRejectsMismatchedClaims(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)

	claims := &token.Claims{
		UserID:         5, // not the impersonated user of this session
		Role:           string(authz.RoleUser),
		TokenType:      token.TypeImpersonation,
		ImpersonatorID: 2,
		SessionID:      result.Session.ID,
	}
	_, err = fx.service.Validate(ctx, claims)
	require.ErrorIs(t, err, shared.ErrInvalidImpersonationState)
}

func TestValidateUnknownSession(t *testing.T) {
	fx := newFixture(t)
	claims := &token.Claims{
		UserID:         4,
		Role:           string(authz.RoleUser),
		TokenType:      token.TypeImpersonation,
		ImpersonatorID: 2,
		SessionID:      "no-such-session",
	}
	_, err := fx.service.Validate(context.Background(), claims)
	require.ErrorIs(t, err, shared.ErrInvalidImpersonationState)
}

func TestEndByImpersonatorCompletes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)

	ended, err := fx.service.End(ctx, admin, result.Session.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)
	require.Nil(t, ended.TerminatedBy)
	require.Len(t, fx.notifier.ended, 1)
}

func TestEndBySuperadminTerminates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)

	ended, err := fx.service.End(ctx, superadmin, result.Session.ID, "policy violation")
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, ended.Status)
	require.NotNil(t, ended.TerminatedBy)
	require.Equal(t, int64(1), *ended.TerminatedBy)
	require.Equal(t, "policy violation", ended.TerminationReason)
}

func TestEndByUnrelatedActorForbidden(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)

	other := authz.Actor{ID: 99, Role: authz.RoleAdmin}
	_, err = fx.service.End(ctx, other, result.Session.ID, "")
	require.ErrorIs(t, err, shared.ErrOutOfScope)
}

func TestEndTwiceConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)

	_, err = fx.service.End(ctx, admin, result.Session.ID, "")
	require.NoError(t, err)

	_, err = fx.service.End(ctx, admin, result.Session.ID, "")
	require.ErrorIs(t, err, shared.ErrConflictingTransition)
}

func TestEndUnknownSession(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.service.End(context.Background(), admin, "no-such-session", "")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListVisibility(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)
	_, err = fx.service.Start(ctx, superadmin, 5, "y")
	require.NoError(t, err)

	all, err := fx.service.List(ctx, superadmin)
	require.NoError(t, err)
	require.Len(t, all, 2)

	own, err := fx.service.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, int64(2), own[0].ImpersonatorID)

	_, err = fx.service.List(ctx, csm)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
}

func TestGetVisibility(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.service.Start(ctx, superadmin, 5, "x")
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, superadmin, result.Session.ID)
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, admin, result.Session.ID)
	require.ErrorIs(t, err, shared.ErrOutOfScope)

	_, err = fx.service.Get(ctx, csm, result.Session.ID)
	require.ErrorIs(t, err, shared.ErrInsufficientRole)
}

func TestSweepExpired(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.service.Start(ctx, admin, 4, "x")
	require.NoError(t, err)
	second, err := fx.service.Start(ctx, superadmin, 5, "y")
	require.NoError(t, err)

	// Only the first session is past expiry.
	expired := first.Session.ExpiresAt.Add(time.Second)
	fx.repo.sessions[second.Session.ID] = func() Session {
		s := fx.repo.sessions[second.Session.ID]
		s.ExpiresAt = expired.Add(time.Hour)
		return s
	}()
	fx.service.now = func() time.Time { return expired }

	n, err := fx.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	swept, err := fx.repo.Get(ctx, first.Session.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, swept.Status)

	untouched, err := fx.repo.Get(ctx, second.Session.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, untouched.Status)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	active := Session{Status: StatusActive, ExpiresAt: now.Add(time.Minute)}
	if active.Expired(now) {
		t.Fatalf("session inside its window should not be expired")
	}
	if !active.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("session past its window should be expired")
	}
	done := Session{Status: StatusCompleted, ExpiresAt: now.Add(-time.Minute)}
	if done.Expired(now) {
		t.Fatalf("finished session is never reported as expired")
	}
}
