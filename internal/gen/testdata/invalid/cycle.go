package invalid

//elucify:model
type Left struct {
	ID      int64
	RightID int64 `foreign:"Right"`
}

//elucify:model
type Right struct {
	ID     int64
	LeftID int64 `foreign:"Left"`
}
