package testdata

//elucify:model
type Setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}
