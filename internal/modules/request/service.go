package request

import (
	"context"
	"fmt"
	"log"
	"strings"

	"profinder/internal/domain"
	"profinder/internal/metrics"
	"profinder/internal/modules/notification"
	"profinder/internal/repository"
)

type Service struct {
	requests RequestRepository
	profiles ProfileReader
	users    UserReader
	notifier Notifier
	activity ActivityRecorder
	views    *assembler
}

func NewService(
	requests RequestRepository,
	profiles ProfileReader,
	users UserReader,
	notifier Notifier,
	activity ActivityRecorder,
) *Service {
	return &Service{
		requests: requests,
		profiles: profiles,
		users:    users,
		notifier: notifier,
		activity: activity,
		views:    &assembler{users: users, profiles: profiles},
	}
}

// Create opens a pending request against a verified professional.
func (s *Service) Create(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, in CreateInput) (*domain.ServiceRequest, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.ProfessionalID <= 0:
		return nil, fmt.Errorf("%w: professional_id is required", domain.ErrInvalidInput)
	case in.Title == "":
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case in.Description == "":
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	case in.EstimatedDays <= 0:
		return nil, fmt.Errorf("%w: estimated_days must be positive", domain.ErrInvalidInput)
	}

	profile, err := s.profiles.GetByID(ctx, in.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !profile.IsVerified() {
		return nil, fmt.Errorf("%w: professional %d is %s", domain.ErrNotEligible, profile.ID, profile.Status)
	}

	requester, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	req := &domain.ServiceRequest{
		RequesterID:    actor.ID,
		ProfessionalID: profile.ID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         domain.RequestPending,
		Timeline:       domain.Timeline{EstimatedDays: in.EstimatedDays},
		UserNotes:      strings.TrimSpace(in.UserNotes),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	metrics.RequestTransitions.WithLabelValues(string(req.Status)).Inc()

	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &profile.ID,
		RequestID:   &req.ID,
		ActionType:  domain.ActionRequestCreated,
		Description: fmt.Sprintf("%s created a service request for %s", requester.Name, owner.Name),
		Details:     details(req, owner.Name, requester.Name),
	})

	s.notify(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifUserRequest,
		Title:            "New Service Request",
		Message:          fmt.Sprintf("%s has requested your services: %s", requester.Name, req.Title),
		Recipients:       []int64{owner.ID},
		RelatedRequestID: &req.ID,
	})
	s.notifySuperAdmins(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifUserRequestCreated,
		Title:            "New User Request Created",
		Message:          fmt.Sprintf("%s has requested services from %s", requester.Name, owner.Name),
		RelatedRequestID: &req.ID,
	})

	return req, nil
}

// AdminRespond approves or rejects a pending request. Only the owner of the
// referenced profile may respond; approval needs both timeline dates.
func (s *Service) AdminRespond(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, requestID int64, in RespondInput) (*domain.ServiceRequest, error) {
	if in.Decision != domain.RequestApproved && in.Decision != domain.RequestRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", domain.ErrInvalidInput)
	}

	req, owner, err := s.loadOwned(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestPending {
		return nil, fmt.Errorf("%w: request is %s", domain.ErrInvalidState, req.Status)
	}

	change := repository.RequestChange{Status: in.Decision, AdminNotes: &in.Notes}
	if in.Decision == domain.RequestApproved {
		if in.StartDate == nil || in.EndDate == nil {
			return nil, fmt.Errorf("%w: start_date and end_date are required to approve", domain.ErrInvalidInput)
		}
		if in.EndDate.Before(*in.StartDate) {
			return nil, fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
		}
		change.StartDate = in.StartDate
		change.EndDate = in.EndDate
	}

	if err := s.requests.TransitionIf(ctx, req.ID, domain.RequestPending, change); err != nil {
		return nil, err
	}
	req.Status = in.Decision
	req.AdminNotes = in.Notes
	if in.Decision == domain.RequestApproved {
		req.Timeline.StartDate = in.StartDate
		req.Timeline.EndDate = in.EndDate
	}
	metrics.RequestTransitions.WithLabelValues(string(req.Status)).Inc()

	requester := s.userName(ctx, req.RequesterID)
	action, _ := domain.ActionForStatus(req.Status)
	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &req.ProfessionalID,
		RequestID:   &req.ID,
		ActionType:  action,
		Description: fmt.Sprintf("%s %s a request from %s", owner.Name, req.Status, requester),
		Details:     details(req, owner.Name, requester),
	})

	userEvent := notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifRequestApproved,
		Title:            "Request Approved",
		Message:          fmt.Sprintf("Your request %q has been approved by %s", req.Title, owner.Name),
		Recipients:       []int64{req.RequesterID},
		RelatedRequestID: &req.ID,
	}
	if req.Status == domain.RequestRejected {
		userEvent.Type = domain.NotifRequestRejected
		userEvent.Title = "Request Rejected"
		userEvent.Message = fmt.Sprintf("Your request %q has been rejected by %s", req.Title, owner.Name)
	}
	s.notify(ctx, userEvent)
	s.notifySuperAdmins(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifRequestStatusUpdated,
		Title:            "Request Status Updated",
		Message:          fmt.Sprintf("%s has %s a request from %s", owner.Name, req.Status, requester),
		RelatedRequestID: &req.ID,
	})

	return req, nil
}

// UpdateProgress moves approved -> in_progress or in_progress -> completed.
func (s *Service) UpdateProgress(ctx context.Context, actor domain.Actor, meta domain.RequestMeta, requestID int64, in ProgressInput) (*domain.ServiceRequest, error) {
	var from domain.RequestStatus
	switch in.Next {
	case domain.RequestInProgress:
		from = domain.RequestApproved
	case domain.RequestCompleted:
		from = domain.RequestInProgress
	default:
		return nil, fmt.Errorf("%w: status must be in_progress or completed", domain.ErrInvalidInput)
	}

	req, owner, err := s.loadOwned(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != from || !domain.CanTransition(req.Status, in.Next) {
		return nil, fmt.Errorf("%w: cannot move %s request to %s", domain.ErrInvalidState, req.Status, in.Next)
	}

	change := repository.RequestChange{Status: in.Next}
	notes := strings.TrimSpace(in.Notes)
	if notes != "" {
		change.AdminNotes = &notes
	}
	if err := s.requests.TransitionIf(ctx, req.ID, from, change); err != nil {
		return nil, err
	}
	req.Status = in.Next
	if notes != "" {
		req.AdminNotes = notes
	}
	metrics.RequestTransitions.WithLabelValues(string(req.Status)).Inc()

	requester := s.userName(ctx, req.RequesterID)
	action, _ := domain.ActionForStatus(req.Status)
	s.record(ctx, meta, &domain.ActivityRecord{
		ActorID:     actor.ID,
		ProfileID:   &req.ProfessionalID,
		RequestID:   &req.ID,
		ActionType:  action,
		Description: fmt.Sprintf("%s marked a request from %s as %s", owner.Name, requester, req.Status),
		Details:     details(req, owner.Name, requester),
	})

	s.notify(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifRequestStatusUpdated,
		Title:            "Request Status Updated",
		Message:          fmt.Sprintf("Your request %q status has been updated to %s", req.Title, req.Status),
		Recipients:       []int64{req.RequesterID},
		RelatedRequestID: &req.ID,
	})
	s.notifySuperAdmins(ctx, notification.Event{
		SenderID:         actor.ID,
		Type:             domain.NotifRequestStatusUpdated,
		Title:            "Request Status Updated",
		Message:          fmt.Sprintf("%s has marked a request from %s as %s", owner.Name, requester, req.Status),
		RelatedRequestID: &req.ID,
	})

	return req, nil
}

// Get is visible to the requester, the owning professional and superadmins.
func (s *Service) Get(ctx context.Context, actor domain.Actor, requestID int64) (*RequestView, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() && actor.ID != req.RequesterID && actor.ID != profile.UserID {
		return nil, fmt.Errorf("%w: no access to request %d", domain.ErrForbidden, req.ID)
	}

	views, err := s.views.assemble(ctx, []domain.ServiceRequest{*req})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListFor returns the caller's requests newest first: their own as a user,
// those addressed to their profile as an admin, everything as a superadmin.
func (s *Service) ListFor(ctx context.Context, actor domain.Actor) ([]RequestView, error) {
	var (
		reqs []domain.ServiceRequest
		err  error
	)
	switch actor.Role {
	case domain.RoleSuperAdmin:
		reqs, err = s.requests.ListAll(ctx)
	case domain.RoleAdmin:
		profile, perr := s.profiles.GetByUserID(ctx, actor.ID)
		if perr != nil {
			return nil, perr
		}
		reqs, err = s.requests.ListByProfessional(ctx, profile.ID)
	case domain.RoleUser:
		reqs, err = s.requests.ListByRequester(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, actor.Role)
	}
	if err != nil {
		return nil, err
	}
	return s.views.assemble(ctx, reqs)
}

// loadOwned loads a request and checks that actor owns its professional profile.
func (s *Service) loadOwned(ctx context.Context, actor domain.Actor, requestID int64) (*domain.ServiceRequest, *domain.User, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profiles.GetByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, nil, err
	}
	if profile.UserID != actor.ID {
		return nil, nil, fmt.Errorf("%w: request %d is not addressed to you", domain.ErrForbidden, req.ID)
	}
	owner, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	return req, owner, nil
}

// userName is used after the mutation, so a failed lookup only degrades text.
func (s *Service) userName(ctx context.Context, id int64) string {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		log.Printf("request_user_lookup_failed user_id=%d error=%q", id, err.Error())
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
		log.Printf("activity_write_failed action=%s request_id=%v error=%q", rec.ActionType, deref(rec.RequestID), err.Error())
	}
}

func (s *Service) notify(ctx context.Context, ev notification.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, ev); err != nil {
		metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindNotification).Inc()
		log.Printf("notification_write_failed type=%s request_id=%v error=%q", ev.Type, deref(ev.RelatedRequestID), err.Error())
	}
}

// notifySuperAdmins reads the superadmin set fresh for every event.
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

func details(req *domain.ServiceRequest, adminName, userName string) domain.ActivityDetails {
	return domain.ActivityDetails{
		RequestTitle:  req.Title,
		AdminName:     adminName,
		UserName:      userName,
		Status:        string(req.Status),
		Notes:         req.AdminNotes,
		EstimatedDays: req.Timeline.EstimatedDays,
		StartDate:     req.Timeline.StartDate,
		EndDate:       req.Timeline.EndDate,
	}
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
