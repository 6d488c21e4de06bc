package request

import (
	"context"
	"fmt"

	"profinder/internal/domain"
)

// assembler resolves requester and professional references with batched reads.
// A dangling reference fails the whole read with ErrNotFound.
type assembler struct {
	users    UserReader
	profiles ProfileReader
}

func (a *assembler) assemble(ctx context.Context, reqs []domain.ServiceRequest) ([]RequestView, error) {
	if len(reqs) == 0 {
		return []RequestView{}, nil
	}

	profileIDs := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		profileIDs = append(profileIDs, r.ProfessionalID)
	}
	profiles, err := a.profiles.GetByIDs(ctx, uniq(profileIDs))
	if err != nil {
		return nil, err
	}

	userIDs := make([]int64, 0, len(reqs)*2)
	for _, r := range reqs {
		userIDs = append(userIDs, r.RequesterID)
	}
	for _, p := range profiles {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := a.users.GetByIDs(ctx, uniq(userIDs))
	if err != nil {
		return nil, err
	}

	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		profile, ok := profiles[r.ProfessionalID]
		if !ok {
			return nil, fmt.Errorf("%w: request %d references missing profile %d", domain.ErrNotFound, r.ID, r.ProfessionalID)
		}
		requester, ok := users[r.RequesterID]
		if !ok {
			return nil, fmt.Errorf("%w: request %d references missing user %d", domain.ErrNotFound, r.ID, r.RequesterID)
		}
		owner, ok := users[profile.UserID]
		if !ok {
			return nil, fmt.Errorf("%w: profile %d references missing user %d", domain.ErrNotFound, profile.ID, profile.UserID)
		}

		out = append(out, RequestView{
			ServiceRequest: r,
			Requester:      PartyView{ID: requester.ID, Name: requester.Name, Email: requester.Email},
			Professional: ProfessionalView{
				ProfileID:  profile.ID,
				UserID:     owner.ID,
				Name:       owner.Name,
				Email:      owner.Email,
				Profession: profile.Profession,
				Experience: profile.Experience,
				City:       profile.City,
			},
		})
	}
	return out, nil
}

func uniq(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
