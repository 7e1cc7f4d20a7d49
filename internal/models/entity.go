package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries the identity and timestamps shared by every domain object.
type Entity struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var now = func() time.Time {
	return time.Now().UTC()
}

func newEntity() Entity {
	t := now()
	return Entity{
		ID:        uuid.NewString(),
		CreatedAt: t,
		UpdatedAt: t,
	}
}

func (e *Entity) touch() {
	e.UpdatedAt = now()
}
