package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User kinds.
const (
	TipoInspector = "inspector"
	TipoCiudadano = "ciudadano"
	TipoAdmin     = "admin"
)

var userKinds = map[string]bool{
	TipoInspector: true,
	TipoCiudadano: true,
	TipoAdmin:     true,
}

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Password   string    `gorm:"type:varchar(128);not null" json:"-"`
	Email      string    `gorm:"type:varchar(254)" json:"email"`
	FirstName  string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName   string    `gorm:"type:varchar(150)" json:"last_name"`
	Tipo       string    `gorm:"type:varchar(20);not null;default:'ciudadano'" json:"tipo"`
	Telefono   *string   `gorm:"type:varchar(20)" json:"telefono"`
	IsStaff    bool      `gorm:"not null;default:false" json:"is_staff"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

func (User) TableName() string { return "usuarios" }

// NewUser returns an active user of the given kind with no password set.
func NewUser(username, tipo string) *User {
	if tipo == "" {
		tipo = TipoCiudadano
	}
	return &User{Username: username, Tipo: tipo, IsActive: true}
}

// IsValidTipo reports whether tipo is a known user kind.
func IsValidTipo(tipo string) bool {
	return userKinds[tipo]
}

// CanManageReports reports whether the user may triage reports:
// inspectors, admins and staff accounts.
func (u *User) CanManageReports() bool {
	return u.Tipo == TipoInspector || u.Tipo == TipoAdmin || u.IsStaff
}

// SetPassword stores the bcrypt hash of raw.
func (u *User) SetPassword(raw string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}
