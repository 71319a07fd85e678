package entity

import (
	"strings"
	"time"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// User is the identity record returned by the auth endpoints. Owners carry
// owner_id/org_name, members carry id/fullName.
type User struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	OwnerID   string `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Email     string `json:"email" yaml:"email"`
	FullName  string `json:"fullName,omitempty" yaml:"full_name,omitempty"`
	OrgName   string `json:"org_name,omitempty" yaml:"org_name,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Role      string `json:"role,omitempty" yaml:"role,omitempty"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

func (u *User) Subject() string {
	if u == nil {
		return ""
	}
	if id := strings.TrimSpace(u.ID); id != "" {
		return id
	}
	return strings.TrimSpace(u.OwnerID)
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.OrgName); name != "" {
		return name
	}
	return u.Email
}

type Session struct {
	Subject   string
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time
	User      User
}

func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return !now.Before(*s.ExpiresAt)
}
