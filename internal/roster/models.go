// internal/roster/models.go
package roster

import "time"

// Student is one roster entry.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Class     string    `db:"class" json:"class"`
	Contact   string    `db:"contact" json:"contact"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewStudent is the add-student form.
type NewStudent struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Class    string `json:"class" validate:"required,oneof=A B"`
	Contact  string `json:"contact" validate:"required,number,len=10"`
	Address  string `json:"address" validate:"required,max=240"`
}
