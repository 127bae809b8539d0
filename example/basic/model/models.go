package model

import (
	"time"

	"github.com/mickamy/elucify/orm"
)

//go:generate go run github.com/mickamy/elucify gen --destination ../query

// User is a registered account.
//
//elucify:model
type User struct {
	orm.Model
	Username  string     `json:"username"`
	Email     string     `db:",unique" json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	Roles     []Role     `rel:"many_to_many,foreign_key:user_id,join_table:user_roles,references:role_id" json:"roles,omitempty"`
}

// Credentials stores the bcrypt hash of a user's password.
//
//elucify:model table=credentials
//elucify:related
type Credentials struct {
	orm.Model
	UserID   int32  `foreign:"User,on_delete:cascade" json:"user_id"`
	Password string `json:"-"`
}

// Role is a named group of users. Roles are seeded by migration.
//
//elucify:model
type Role struct {
	orm.Model
	Name string `db:",unique" json:"name"`
}

// RoleMember is the role every new user is granted.
const RoleMember = "member"

// UserRole grants a role to a user.
//
//elucify:model
type UserRole struct {
	orm.Model
	UserID int32 `foreign:"User,on_delete:cascade"`
	RoleID int32 `foreign:"Role,on_delete:cascade"`
}
