package domain

import (
	"errors"
	"fmt"
)

// ActorKind discriminates the two entity types that can act on a task.
type ActorKind string

// Possible actor kinds.
const (
	ActorKindAdmin ActorKind = "admin"
	ActorKindUser  ActorKind = "user"
)

// Actor-specific validation errors
var (
	// ErrActorIDInvalid is returned when an actor reference carries a
	// non-positive numeric ID.
	ErrActorIDInvalid = errors.New("actor ID must be positive")
)

// ActorRef is a lightweight polymorphic identity: the kind of the acting
// entity plus its numeric ID. It is immutable once attached to a task field;
// equality is structural (kind AND id).
type ActorRef struct {
	Kind ActorKind `json:"kind"`
	ID   int64     `json:"id"`
}

// NewActorRef creates a validated ActorRef for the given kind and ID.
// Returns an error if the kind is unknown or the ID is not positive.
func NewActorRef(kind ActorKind, id int64) (ActorRef, error) {
	ref := ActorRef{Kind: kind, ID: id}
	if err := ref.Validate(); err != nil {
		return ActorRef{}, err
	}
	return ref, nil
}

// Validate checks that the reference carries a known kind and a positive ID.
func (a ActorRef) Validate() error {
	if !isValidActorKind(a.Kind) {
		return ErrInvalidActorKind
	}
	if a.ID <= 0 {
		return ErrActorIDInvalid
	}
	return nil
}

// Equals reports whether two references identify the same entity.
// Comparison is structural: both the kind and the ID must match.
func (a ActorRef) Equals(other ActorRef) bool {
	return a.Kind == other.Kind && a.ID == other.ID
}

// String returns a compact "kind:id" form, used in logs.
func (a ActorRef) String() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

// isValidActorKind checks if the given kind is a known ActorKind.
func isValidActorKind(kind ActorKind) bool {
	switch kind {
	case ActorKindAdmin, ActorKindUser:
		return true
	default:
		return false
	}
}
