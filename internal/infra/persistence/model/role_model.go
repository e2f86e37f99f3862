package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoleModel mirrors the 'roles' table. Name is unique; permissions are a JSONB array.
type RoleModel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string                      `gorm:"type:varchar(32);not null;uniqueIndex:uq_roles_name"`
	Description string                      `gorm:"type:text"`
	Permissions datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	IsDefault   bool                        `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}
