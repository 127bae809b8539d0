package foreignnames

//elucify:model
type User struct {
	ID int32
}

//elucify:model
//elucify:related
type Post struct {
	ID       int32
	AuthorID int32  `foreign:"User"`
	Editor   *int32 `foreign:"User"`
	ParentID *int32 `foreign:"Post"`
}
