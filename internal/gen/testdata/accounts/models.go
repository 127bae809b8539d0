package accounts

import (
	"time"

	"github.com/mickamy/elucify/orm"
)

//elucify:model
type User struct {
	orm.Model
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

//elucify:model table=credentials
//elucify:related
type Credentials struct {
	orm.Model
	UserID   int32  `foreign:"User"`
	Password string `json:"-"`
}
