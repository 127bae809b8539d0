package accounts

import (
	"time"

	"github.com/mickamy/elucify/orm"
)

//elucify:model
//elucify:related
type Session struct {
	orm.Model
	UserID     int32  `foreign:"User,on_delete:cascade"`
	ReviewerID *int32 `foreign:"User,on_delete:set null"`
	Token      string
	ExpiresAt  *time.Time
}
