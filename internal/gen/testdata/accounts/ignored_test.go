package accounts

//elucify:model
type Fixture struct {
	ID int
}
