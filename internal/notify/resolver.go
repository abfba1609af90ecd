package notify

import (
	"context"
	"fmt"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// Contact is a resolved actor: the reference plus the display name and
// email address needed to address a notification.
type Contact struct {
	Ref   domain.ActorRef
	Name  string
	Email string
}

// ActorResolver resolves an ActorRef to a concrete entity by dispatching
// over the reference kind to the appropriate lookup store.
type ActorResolver struct {
	users  store.UserStore
	admins store.AdminStore
}

// NewActorResolver creates an ActorResolver over the given stores.
func NewActorResolver(users store.UserStore, admins store.AdminStore) *ActorResolver {
	return &ActorResolver{users: users, admins: admins}
}

// Resolve looks up the entity behind ref. Returns the store's not-found
// error when the entity no longer exists.
func (r *ActorResolver) Resolve(ctx context.Context, ref domain.ActorRef) (*Contact, error) {
	switch ref.Kind {
	case domain.ActorKindUser:
		user, err := r.users.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &Contact{Ref: ref, Name: user.Name, Email: user.Email}, nil

	case domain.ActorKindAdmin:
		admin, err := r.admins.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &Contact{Ref: ref, Name: admin.Name, Email: admin.Email}, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidActorKind, ref.Kind)
	}
}
