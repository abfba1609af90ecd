package domain

import "time"

// Admin represents an administrative actor. Admins can create and own tasks
// the same way users can; the kind tag on ActorRef keeps the two ID spaces
// separate.
type Admin struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the actor reference identifying this admin.
func (a *Admin) Ref() ActorRef {
	return ActorRef{Kind: ActorKindAdmin, ID: a.ID}
}

// Validate checks if the Admin has valid data.
func (a *Admin) Validate() error {
	if a.Name == "" {
		return ErrEmptyName
	}
	if a.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(a.Email) {
		return ErrInvalidEmail
	}
	return nil
}
