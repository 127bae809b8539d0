package testdata

import "time"

//elucify:model
type WithTimestamps struct {
	ID        int       `db:"id,primaryKey"`
	Name      string    `db:"name"`
	CreatedAt time.Time // convention
	UpdatedAt time.Time // convention
}

//elucify:model
type WithCustomTimestampCols struct {
	ID         int       `db:"id,primaryKey"`
	InsertedAt time.Time `db:"inserted_at,createdAt"`
	ModifiedAt time.Time `db:"modified_at,updatedAt"`
}

//elucify:model
type WithTagAndConvention struct {
	ID        int       `db:"id,primaryKey"`
	CreatedAt time.Time `db:"created_at"` // convention still applies with tag
	UpdatedAt time.Time `db:"updated_at"` // convention still applies with tag
}
