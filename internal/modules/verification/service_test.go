package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"profinder/internal/database"
	"profinder/internal/domain"
	"profinder/internal/modules/activity"
	"profinder/internal/modules/notification"
	"profinder/internal/realtime"
	"profinder/internal/repository"
	"profinder/internal/storage"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *fakePublisher) Publish(topic string, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == realtime.TopicSuperAdmin {
		p.events = append(p.events, ev)
	}
	return nil
}

// memoryStore is a DocumentStore keeping refs in a map.
type memoryStore struct {
	mu   sync.Mutex
	refs map[string][]byte
}

func newMemoryStore(refs ...string) *memoryStore {
	s := &memoryStore{refs: map[string][]byte{}}
	for _, r := range refs {
		s.refs[r] = nil
	}
	return s
}

func (s *memoryStore) Put(_ context.Context, userID int64, kind storage.DocumentKind, filename string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := storage.ObjectKey(userID, kind, filename, "test")
	s.mu.Lock()
	s.refs[ref] = data
	s.mu.Unlock()
	return ref, nil
}

func (s *memoryStore) Exists(_ context.Context, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.refs[ref]
	return ok, nil
}

type harness struct {
	db        *gorm.DB
	users     *repository.UserRepository
	profiles  *repository.ProfileRepository
	publisher *fakePublisher
	svc       *Service
}

func newHarness(t *testing.T, docs storage.DocumentStore) *harness {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	h := &harness{
		db:        db,
		users:     repository.NewUserRepository(db),
		profiles:  repository.NewProfileRepository(db),
		publisher: &fakePublisher{},
	}
	h.svc = NewService(
		h.profiles,
		h.users,
		notification.NewDispatcher(repository.NewNotificationRepository(db), h.publisher),
		activity.NewRecorder(repository.NewActivityRepository(db)),
		docs,
	)
	return h
}

func (h *harness) user(t *testing.T, name string, role domain.UserRole) domain.Actor {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, h.users.Create(context.Background(), u))
	return domain.Actor{ID: u.ID, Role: role}
}

func (h *harness) notifications(t *testing.T, recipientID int64) []domain.Notification {
	t.Helper()
	var out []domain.Notification
	require.NoError(t, h.db.Where("recipient_id = ?", recipientID).Order("id ASC").Find(&out).Error)
	return out
}

func (h *harness) activityFor(t *testing.T, profileID int64) []domain.ActivityRecord {
	t.Helper()
	var out []domain.ActivityRecord
	require.NoError(t, h.db.Where("profile_id = ?", profileID).Order("id ASC").Find(&out).Error)
	return out
}

func application() SubmitInput {
	return SubmitInput{
		Profession: "plumber",
		Experience: 7,
		City:       "Jaipur",
		PostalCode: "302001",
		Mobile:     "9800000000",
		AadharCard: "identity/1/aadhar_card-a.png",
	}
}

func TestSubmit_RequiresDocument(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	applicant := h.user(t, "ravi", domain.RoleUser)

	in := application()
	in.AadharCard = ""
	_, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.profiles.GetByUserID(ctx, applicant.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err := h.users.GetByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
}

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t, nil)
	applicant := h.user(t, "ravi", domain.RoleUser)

	cases := map[string]func(*SubmitInput){
		"blank profession":    func(in *SubmitInput) { in.Profession = "  " },
		"blank city":          func(in *SubmitInput) { in.City = "" },
		"blank postal code":   func(in *SubmitInput) { in.PostalCode = "" },
		"negative experience": func(in *SubmitInput) { in.Experience = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := application()
			mutate(&in)
			_, err := h.svc.Submit(context.Background(), applicant, domain.RequestMeta{}, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSubmit_FansOutToSuperAdmins(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root1 := h.user(t, "root1", domain.RoleSuperAdmin)
	root2 := h.user(t, "root2", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)

	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{IPAddress: "10.0.0.1"}, application())
	require.NoError(t, err)
	assert.Equal(t, domain.ProfilePending, profile.Status)

	u, err := h.users.GetByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.False(t, u.Verified)

	for _, root := range []domain.Actor{root1, root2} {
		got := h.notifications(t, root.ID)
		require.Len(t, got, 1)
		assert.Equal(t, domain.NotifAdminVerificationRequest, got[0].Type)
		assert.Equal(t, "New Admin Verification Request", got[0].Title)
		assert.Equal(t, "ravi has submitted an admin verification request for plumber profession.", got[0].Message)
		require.NotNil(t, got[0].RelatedProfileID)
		assert.Equal(t, profile.ID, *got[0].RelatedProfileID)
	}
	assert.Empty(t, h.notifications(t, applicant.ID))

	require.Len(t, h.publisher.events, 1)
	ev := h.publisher.events[0]
	assert.Equal(t, realtime.EventNewAdminVerification, ev.Type)
	payload, ok := ev.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, profile.ID, payload["related_profile_id"])

	recs := h.activityFor(t, profile.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionVerificationSubmitted, recs[0].ActionType)
	assert.Equal(t, applicant.ID, recs[0].ActorID)
	assert.Equal(t, "10.0.0.1", recs[0].IPAddress)
}

func TestSubmit_Conflict(t *testing.T) {
	h := newHarness(t, nil)
	applicant := h.user(t, "ravi", domain.RoleUser)

	_, err := h.svc.Submit(context.Background(), applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)

	_, err = h.svc.Submit(context.Background(), domain.Actor{ID: applicant.ID, Role: domain.RoleAdmin}, domain.RequestMeta{}, application())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSubmit_SuperAdminForbidden(t *testing.T) {
	h := newHarness(t, nil)
	root := h.user(t, "root", domain.RoleSuperAdmin)

	_, err := h.svc.Submit(context.Background(), root, domain.RequestMeta{}, application())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmit_DocumentsMustExistInStore(t *testing.T) {
	docs := newMemoryStore("identity/1/voter_id-b.pdf")
	h := newHarness(t, docs)
	applicant := h.user(t, "ravi", domain.RoleUser)

	_, err := h.svc.Submit(context.Background(), applicant, domain.RequestMeta{}, application())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in := application()
	in.AadharCard = ""
	in.VoterID = "identity/1/voter_id-b.pdf"
	profile, err := h.svc.Submit(context.Background(), applicant, domain.RequestMeta{}, in)
	require.NoError(t, err)
	assert.Equal(t, "identity/1/voter_id-b.pdf", profile.VoterID)
}

func TestSubmit_RejectsAnotherAccountsDocument(t *testing.T) {
	docs := newMemoryStore()
	h := newHarness(t, docs)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleUser)
	mallory := h.user(t, "mallory", domain.RoleUser)

	ref, err := docs.Put(ctx, alice.ID, storage.DocAadharCard, "scan.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	in := application()
	in.AadharCard = ref
	_, err = h.svc.Submit(ctx, mallory, domain.RequestMeta{}, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.profiles.GetByUserID(ctx, mallory.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	in.AadharCard = fmt.Sprintf("identity/%d/../%d/aadhar_card-test.png", mallory.ID, alice.ID)
	_, err = h.svc.Submit(ctx, mallory, domain.RequestMeta{}, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.AadharCard = ref
	profile, err := h.svc.Submit(ctx, alice, domain.RequestMeta{}, in)
	require.NoError(t, err)
	assert.Equal(t, ref, profile.AadharCard)
}

func TestDecide_Verify(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)

	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)

	decided, err := h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfileVerified)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileVerified, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, root.ID, *decided.DecidedBy)

	u, err := h.users.GetByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.Equal(t, "plumber", u.Profession)
	assert.Equal(t, 7, u.Experience)
	assert.Equal(t, "Jaipur", u.City)
	assert.Equal(t, "302001", u.PostalCode)

	got := h.notifications(t, applicant.ID)
	require.Len(t, got, 1)
	assert.Equal(t, domain.NotifAdminVerified, got[0].Type)

	recs := h.activityFor(t, profile.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.ActionAdminVerified, recs[1].ActionType)
	assert.Equal(t, root.ID, recs[1].ActorID)

	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfileRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, h.activityFor(t, profile.ID), 2)
}

func TestDecide_Reject(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)

	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)

	decided, err := h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfileRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileRejected, decided.Status)

	u, err := h.users.GetByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.Empty(t, u.Profession)

	got := h.notifications(t, applicant.ID)
	require.Len(t, got, 1)
	assert.Equal(t, domain.NotifAdminRejected, got[0].Type)
}

func TestDecide_Guards(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)
	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)

	_, err = h.svc.Decide(ctx, domain.Actor{ID: applicant.ID, Role: domain.RoleAdmin}, domain.RequestMeta{}, profile.ID, domain.ProfileVerified)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, 9999, domain.ProfileVerified)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfilePending)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecide_ConcurrentExactlyOne(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)
	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		decision := domain.ProfileVerified
		if i%2 == 1 {
			decision = domain.ProfileRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, decision)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrInvalidState), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, h.notifications(t, applicant.ID), 1)
}

func TestListings(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	a := h.user(t, "asha", domain.RoleUser)
	b := h.user(t, "bala", domain.RoleUser)
	c := h.user(t, "chen", domain.RoleUser)

	pa, err := h.svc.Submit(ctx, a, domain.RequestMeta{}, application())
	require.NoError(t, err)
	pb, err := h.svc.Submit(ctx, b, domain.RequestMeta{}, application())
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, c, domain.RequestMeta{}, application())
	require.NoError(t, err)

	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, pa.ID, domain.ProfileVerified)
	require.NoError(t, err)
	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, pb.ID, domain.ProfileRejected)
	require.NoError(t, err)

	public, err := h.svc.ListVerified(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "asha", public[0].Name)
	assert.Empty(t, public[0].AadharCard)

	pending, err := h.svc.ListPending(ctx, root)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "chen", pending[0].Name)
	assert.NotEmpty(t, pending[0].AadharCard)

	all, err := h.svc.ListProfiles(ctx, root, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = h.svc.ListProfiles(ctx, root, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.svc.ListPending(ctx, a)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stats, err := h.svc.DashboardStats(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, &DashboardStats{TotalUsers: 4, TotalProfessionals: 3, Verified: 1, Pending: 1, Rejected: 1}, stats)

	_, err = h.svc.DashboardStats(ctx, a)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateProfile_ResetsVerification(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	applicant := h.user(t, "ravi", domain.RoleUser)

	profile, err := h.svc.Submit(ctx, applicant, domain.RequestMeta{}, application())
	require.NoError(t, err)
	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfileVerified)
	require.NoError(t, err)

	admin := domain.Actor{ID: applicant.ID, Role: domain.RoleAdmin}
	updated, err := h.svc.UpdateProfile(ctx, admin, domain.RequestMeta{}, ProfileUpdateInput{
		Profession: "electrician",
		Experience: 8,
		City:       "Pune",
		PostalCode: "411001",
		Mobile:     "9811111111",
	})
	require.NoError(t, err)
	assert.Equal(t, profile.ID, updated.ID)
	assert.Equal(t, domain.ProfilePending, updated.Status)
	assert.Equal(t, "electrician", updated.Profession)
	assert.Nil(t, updated.DecidedBy)

	u, err := h.users.GetByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.Equal(t, "Pune", u.City)

	public, err := h.svc.ListVerified(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	got := h.notifications(t, root.ID)
	require.Len(t, got, 2)
	assert.Equal(t, "Admin Profile Updated", got[1].Title)
	assert.Len(t, h.publisher.events, 2)

	recs := h.activityFor(t, profile.ID)
	require.Len(t, recs, 3)
	assert.Equal(t, domain.ActionProfileUpdated, recs[2].ActionType)

	// back in the queue, so it can be decided again
	_, err = h.svc.Decide(ctx, root, domain.RequestMeta{}, profile.ID, domain.ProfileVerified)
	require.NoError(t, err)
}

func TestUpdateProfile_Guards(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	plain := h.user(t, "ravi", domain.RoleUser)
	orphan := h.user(t, "asha", domain.RoleAdmin)

	in := ProfileUpdateInput{Profession: "plumber", City: "Pune", PostalCode: "411001", Mobile: "98"}

	_, err := h.svc.UpdateProfile(ctx, plain, domain.RequestMeta{}, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.UpdateProfile(ctx, orphan, domain.RequestMeta{}, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bad := in
	bad.Mobile = " "
	_, err = h.svc.UpdateProfile(ctx, orphan, domain.RequestMeta{}, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListAccounts(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	root := h.user(t, "root", domain.RoleSuperAdmin)
	h.user(t, "ravi", domain.RoleUser)
	h.user(t, "asha", domain.RoleAdmin)

	all, err := h.svc.ListAccounts(ctx, root, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	admins, err := h.svc.ListAccounts(ctx, root, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "asha", admins[0].Name)

	_, err = h.svc.ListAccounts(ctx, root, "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.ListAccounts(ctx, domain.Actor{ID: 2, Role: domain.RoleAdmin}, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
