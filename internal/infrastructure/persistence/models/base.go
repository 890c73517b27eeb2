package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// BaseModel holds the identity and timestamp columns every table
// shares. IDs are generated in the domain, never by the database.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain maps the persistence columns onto a domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain copies identity and timestamps from a domain BaseEntity
func (m *BaseModel) FromDomain(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
