package core

import "time"

// Note is the central entity of the domain.
// It mirrors one row of the "notes" relation on the backend.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the partial note sent on insert. The backend assigns the ID.
type Draft struct {
	Title     *string   `json:"title,omitempty"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is the partial note sent on update. Nil fields are left untouched.
type Patch struct {
	Title     *string   `json:"title,omitempty"`
	Content   *string   `json:"content,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Text returns a pointer to s, for building Draft and Patch literals.
func Text(s string) *string {
	return &s
}
