package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario is a tenant-scoped account. Rol: "administrador" | "supervisor" | "cajero"
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Nombre       string    `gorm:"not null"`
	Rol          string    `gorm:"type:varchar(20);not null;default:'cajero'"`
	Activo       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
