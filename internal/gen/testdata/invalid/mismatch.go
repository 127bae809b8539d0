package invalid

//elucify:model
type Account struct {
	ID   int64
	Name string
}

//elucify:model
//elucify:related
type Membership struct {
	ID        int64
	AccountID int32 `foreign:"Account"`
	TeamID    int64 `foreign:"Team"`
}
