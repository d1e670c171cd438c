package services

import (
	"context"

	"charityops_backend/internal/repositories"
)

// Audience selects who a domain event fans out to: the full administrator
// roster, or an explicit recipient id list supplied by the producer.
type Audience struct {
	allAdmins  bool
	recipients []string
}

// AllAdmins targets every active administrator; the roster is looked up at
// fan-out time, never cached.
func AllAdmins() Audience {
	return Audience{allAdmins: true}
}

// Recipients targets an explicit id list.
func Recipients(ids ...string) Audience {
	return Audience{recipients: ids}
}

// RecipientResolver turns an audience selector into the current set of
// eligible recipient ids. Read-only, no side effects.
type RecipientResolver interface {
	Resolve(ctx context.Context, audience Audience) ([]string, error)
}

type rosterResolver struct {
	userRepo repositories.UserRepository
}

func NewRecipientResolver(userRepo repositories.UserRepository) RecipientResolver {
	return &rosterResolver{userRepo: userRepo}
}

// Resolve returns recipient ids for the audience. An empty roster is not an
// error; the fan-out simply has nothing to do.
func (r *rosterResolver) Resolve(ctx context.Context, audience Audience) ([]string, error) {
	if !audience.allAdmins {
		return audience.recipients, nil
	}

	admins, err := r.userRepo.FindAdmins()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}
	return ids, nil
}
