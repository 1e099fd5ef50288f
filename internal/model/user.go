package model

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User 用户模型
type User struct {
	ID           int        `json:"-" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:128"` // 确认码的 bcrypt 哈希
	Role         Role       `json:"role" gorm:"size:16;not null;default:user"`
	Bio          string     `json:"bio" gorm:"type:text"`
	FirstName    string     `json:"first_name" gorm:"size:150"`
	LastName     string     `json:"last_name" gorm:"size:150"`
	IsSuperuser  bool       `json:"-" gorm:"not null;default:false"`
	CodeIssuedAt *time.Time `json:"-"` // 最近一次发放确认码的时间
	DateJoined   time.Time  `json:"-" gorm:"autoCreateTime"`
}
