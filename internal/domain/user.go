package domain

import "time"

// 角色常量：REP 只能看到自己负责的数据，MANAGER/ADMIN 全量
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleRep     = "REP"
)

func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleManager || r == RoleRep
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string    `gorm:"size:191" json:"email"`
	PasswordHash string    `gorm:"size:191" json:"-"`
	Role         string    `gorm:"size:16;not null;default:REP" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(u *User) error
	FindByID(id string) (*User, error)
	FindByUsername(username string) (*User, error)
	FindByEmail(email string) (*User, error)
	List(offset, limit int) ([]User, int64, error)
	Update(u *User) error
	Delete(id string) error
}
