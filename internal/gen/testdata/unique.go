package testdata

//elucify:model
type Member struct {
	ID       int64   `db:",primaryKey"`
	Email    string  `db:",unique"`
	Nickname *string `db:"nick,unique"`
	Bio      string
}
