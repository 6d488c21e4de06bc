package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"profinder/internal/domain"
	"profinder/internal/metrics"
	"profinder/internal/modules/notification"
	"profinder/internal/storage"
)

const MaxDocumentSize = 10 << 20

var (
	ErrStorageDisabled = errors.New("document storage is not configured")
	ErrFileTooLarge    = errors.New("document exceeds 10 MB")
)

var allowedDocumentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type Service struct {
	profiles  ProfileRepository
	users     UserRepository
	notifier  Notifier
	activity  ActivityRecorder
	documents storage.DocumentStore
}

// NewService builds the verification engine. documents may be nil, in which
// case refs are accepted as given and uploads are refused.
func NewService(
	profiles ProfileRepository,
	users UserRepository,
	notifier Notifier,
	activity ActivityRecorder,
	documents storage.DocumentStore,
) *Service {
	return &Service{
		profiles:  profiles,
		users:     users,
		notifier:  notifier,
		activity:  activity,
		documents: documents,
	}
}

// Submit files a verification application and makes the applicant a pending admin.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, in SubmitInput) (*domain.ProfessionalProfile, error) {
	if actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: superadmins cannot apply for verification", domain.ErrForbidden)
	}

	in.Profession = strings.TrimSpace(in.Profession)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.AadharCard = strings.TrimSpace(in.AadharCard)
	in.VoterID = strings.TrimSpace(in.VoterID)
	switch {
	case in.Profession == "":
		return nil, fmt.Errorf("%w: profession is required", domain.ErrInvalidInput)
	case in.City == "":
		return nil, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	case in.PostalCode == "":
		return nil, fmt.Errorf("%w: postal_code is required", domain.ErrInvalidInput)
	case in.Experience < 0:
		return nil, fmt.Errorf("%w: experience cannot be negative", domain.ErrInvalidInput)
	case in.AadharCard == "" && in.VoterID == "":
		return nil, fmt.Errorf("%w: at least one identity document is required", domain.ErrInvalidInput)
	}

	if existing, err := s.profiles.GetByUserID(ctx, actor.ID); err == nil {
		return nil, fmt.Errorf("%w: profile %d already submitted", domain.ErrConflict, existing.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := s.checkDocuments(ctx, actor.ID, in.AadharCard, in.VoterID); err != nil {
		return nil, err
	}

	applicant, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	profile := &domain.ProfessionalProfile{
		UserID:     actor.ID,
		Profession: in.Profession,
		Experience: in.Experience,
		City:       in.City,
		PostalCode: in.PostalCode,
		Mobile:     strings.TrimSpace(in.Mobile),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		AadharCard: in.AadharCard,
		VoterID:    in.VoterID,
		Status:     domain.ProfilePending,
	}
	if err := s.profiles.CreateAndPromote(ctx, profile, domain.RoleAdmin); err != nil {
		return nil, err
	}

	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &profile.ID,
		ActionType:  domain.ActionVerificationSubmitted,
		Description: fmt.Sprintf("%s submitted a verification application as %s", applicant.Name, profile.Profession),
		Details:     domain.ActivityDetails{AdminName: applicant.Name, Status: string(profile.Status)},
	})

	s.notifySuperAdmins(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifAdminVerificationRequest,
		Title:            "New Admin Verification Request",
		Message:          fmt.Sprintf("%s has submitted an admin verification request for %s profession.", applicant.Name, profile.Profession),
		RelatedProfileID: &profile.ID,
	})

	return profile, nil
}

// Decide verifies or rejects a pending profile. Only one decision ever lands.
func (s *Service) Decide(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, profileID int64, decision domain.ProfileStatus) (*domain.ProfessionalProfile, error) {
	if !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: only superadmins decide verification", domain.ErrForbidden)
	}
	if decision != domain.ProfileVerified && decision != domain.ProfileRejected {
		return nil, fmt.Errorf("%w: decision must be verified or rejected", domain.ErrInvalidInput)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Status != domain.ProfilePending {
		return nil, fmt.Errorf("%w: profile is already %s", domain.ErrInvalidState, profile.Status)
	}

	if err := s.profiles.DecideIf(ctx, profile.ID, domain.ProfilePending, decision, actor.ID); err != nil {
		return nil, err
	}
	updated, err := s.profiles.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	owner := s.userName(ctx, updated.UserID)
	superadmin := s.userName(ctx, actor.ID)

	action, notifType, title, verb := domain.ActionAdminVerified, domain.NotifAdminVerified, "Verification Approved", "approved"
	if decision == domain.ProfileRejected {
		action, notifType, title, verb = domain.ActionAdminRejected, domain.NotifAdminRejected, "Verification Rejected", "rejected"
	}

	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &updated.ID,
		ActionType:  action,
		Description: fmt.Sprintf("%s %s the %s application of %s", superadmin, verb, updated.Profession, owner),
		Details:     domain.ActivityDetails{AdminName: owner, UserName: superadmin, Status: string(updated.Status)},
	})

	s.notify(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             notifType,
		Title:            title,
		Message:          fmt.Sprintf("Your admin verification request for %s has been %s.", updated.Profession, verb),
		Recipients:       []int64{updated.UserID},
		RelatedProfileID: &updated.ID,
	})

	return updated, nil
}

// UpdateProfile lets an admin edit their application. Any edit sends the
// profile back to pending and clears the account's verified flag, so
// superadmins are asked to review it again.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, in ProfileUpdateInput) (*domain.ProfessionalProfile, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can update their professional profile", domain.ErrForbidden)
	}

	in.Profession = strings.TrimSpace(in.Profession)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Mobile = strings.TrimSpace(in.Mobile)
	switch {
	case in.Profession == "":
		return nil, fmt.Errorf("%w: profession is required", domain.ErrInvalidInput)
	case in.City == "":
		return nil, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	case in.PostalCode == "":
		return nil, fmt.Errorf("%w: postal_code is required", domain.ErrInvalidInput)
	case in.Mobile == "":
		return nil, fmt.Errorf("%w: mobile is required", domain.ErrInvalidInput)
	case in.Experience < 0:
		return nil, fmt.Errorf("%w: experience cannot be negative", domain.ErrInvalidInput)
	}

	previous, err := s.profiles.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	err = s.profiles.Resubmit(ctx, &domain.ProfessionalProfile{
		UserID:     actor.ID,
		Profession: in.Profession,
		Experience: in.Experience,
		City:       in.City,
		PostalCode: in.PostalCode,
		Mobile:     in.Mobile,
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.profiles.GetByID(ctx, previous.ID)
	if err != nil {
		return nil, err
	}

	owner := s.userName(ctx, actor.ID)
	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &updated.ID,
		ActionType:  domain.ActionProfileUpdated,
		Description: fmt.Sprintf("%s updated their %s profile (was %s)", owner, updated.Profession, previous.Status),
		Details:     domain.ActivityDetails{AdminName: owner, Status: string(updated.Status)},
	})

	s.notifySuperAdmins(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifAdminVerificationRequest,
		Title:            "Admin Profile Updated",
		Message:          fmt.Sprintf("%s has updated their %s profile and needs re-verification.", owner, updated.Profession),
		RelatedProfileID: &updated.ID,
	})

	return updated, nil
}

// ListAccounts lists accounts for superadmins. An empty role means all.
func (s *Service) ListAccounts(ctx context.Context, actor domain.Actor, role domain.UserRole) ([]domain.User, error) {
	if !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: superadmin only", domain.ErrForbidden)
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return s.users.List(ctx, role)
}

// MyProfile returns the caller's own application.
func (s *Service) MyProfile(ctx context.Context, actor domain.Actor) (*domain.ProfessionalProfile, error) {
	return s.profiles.GetByUserID(ctx, actor.ID)
}

// ListProfiles lists applications for superadmins. An empty status means all.
func (s *Service) ListProfiles(ctx context.Context, actor domain.Actor, status domain.ProfileStatus) ([]ProfileView, error) {
	if !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: superadmin only", domain.ErrForbidden)
	}
	if status != "" && status != domain.ProfilePending && status != domain.ProfileVerified && status != domain.ProfileRejected {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	profiles, err := s.profiles.List(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, profiles, true)
}

func (s *Service) ListPending(ctx context.Context, actor domain.Actor) ([]ProfileView, error) {
	return s.ListProfiles(ctx, actor, domain.ProfilePending)
}

// ListVerified is the public directory. Document refs are never exposed.
func (s *Service) ListVerified(ctx context.Context) ([]ProfileView, error) {
	profiles, err := s.profiles.List(ctx, domain.ProfileVerified)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, profiles, false)
}

func (s *Service) DashboardStats(ctx context.Context, actor domain.Actor) (*DashboardStats, error) {
	if !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: superadmin only", domain.ErrForbidden)
	}

	var (
		stats DashboardStats
		err   error
	)
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Pending, err = s.profiles.CountByStatus(ctx, domain.ProfilePending); err != nil {
		return nil, err
	}
	if stats.Verified, err = s.profiles.CountByStatus(ctx, domain.ProfileVerified); err != nil {
		return nil, err
	}
	if stats.Rejected, err = s.profiles.CountByStatus(ctx, domain.ProfileRejected); err != nil {
		return nil, err
	}
	stats.TotalProfessionals = stats.Pending + stats.Verified + stats.Rejected
	return &stats, nil
}

// UploadDocument stores an identity document and returns the ref to submit.
func (s *Service) UploadDocument(ctx context.Context, actor domain.Actor, kind storage.DocumentKind, fh *multipart.FileHeader) (string, error) {
	if s.documents == nil {
		return "", ErrStorageDisabled
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: kind must be aadhar_card or voter_id", domain.ErrInvalidInput)
	}
	if fh.Size <= 0 {
		return "", fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	if fh.Size > MaxDocumentSize {
		return "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read document: %w", err)
	}
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]
	if !allowedDocumentTypes[mimeType] {
		return "", fmt.Errorf("%w: unsupported document type %s", domain.ErrInvalidInput, mimeType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind document: %w", err)
	}

	return s.documents.Put(ctx, actor.ID, kind, fh.Filename, f, fh.Size, mimeType)
}

// checkDocuments requires every ref to be an upload of the applicant.
func (s *Service) checkDocuments(ctx context.Context, ownerID int64, refs ...string) error {
	if s.documents == nil {
		return nil
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if !storage.OwnedBy(ref, ownerID) {
			return fmt.Errorf("%w: document %q does not belong to the applicant", domain.ErrInvalidInput, ref)
		}
		ok, err := s.documents.Exists(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: document %q was not uploaded", domain.ErrInvalidInput, ref)
		}
	}
	return nil
}

func (s *Service) views(ctx context.Context, profiles []domain.ProfessionalProfile, withDocuments bool) ([]ProfileView, error) {
	ids := make([]int64, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ProfileView, 0, len(profiles))
	for _, p := range profiles {
		u, ok := users[p.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: user %d of profile %d", domain.ErrNotFound, p.UserID, p.ID)
		}
		v := ProfileView{
			ID:         p.ID,
			UserID:     p.UserID,
			Name:       u.Name,
			Email:      u.Email,
			Profession: p.Profession,
			Experience: p.Experience,
			City:       p.City,
			PostalCode: p.PostalCode,
			Mobile:     p.Mobile,
			Status:     p.Status,
			CreatedAt:  p.CreatedAt,
		}
		if withDocuments {
			v.AadharCard = p.AadharCard
			v.VoterID = p.VoterID
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) userName(ctx context.Context, id int64) string {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		log.Printf("verification_user_lookup_failed user_id=%d error=%q", id, err.Error())
		return fmt.Sprintf("user #%d", id)
	}
	return u.Name
}

func (s *Service) record(ctx context.Context, meta domain.RequestMeta, rec *domain.ActivityRecord) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, rec, meta); err != nil {
		metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindActivity).Inc()
		log.Printf("activity_write_failed action=%s profile_id=%v error=%q", rec.ActionType, deref(rec.ProfileID), err.Error())
	}
}

func (s *Service) notify(ctx context.Context, ev notification.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, ev); err != nil {
		metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindNotification).Inc()
		log.Printf("notification_write_failed type=%s profile_id=%v error=%q", ev.Type, deref(ev.RelatedProfileID), err.Error())
	}
}

func (s *Service) notifySuperAdmins(ctx context.Context, ev notification.Event) {
	ids, err := s.users.ListIDsByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindNotification).Inc()
		log.Printf("superadmin_lookup_failed type=%s error=%q", ev.Type, err.Error())
		return
	}
	if len(ids) == 0 {
		return
	}
	ev.Recipients = ids
	s.notify(ctx, ev)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
