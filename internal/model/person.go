package model

import "time"

// Person is the only entity exposed by the API.
// ID, CreatedAt and UpdatedAt are server-assigned; values supplied by callers are ignored.
// Phone and UpdatedAt are pointers so that absence serializes as null.
type Person struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name" validate:"required,max=100"`
	Age       int        `json:"age" validate:"gte=0,lte=150"`
	Email     string     `json:"email" validate:"required,email,max=100"`
	Phone     *string    `json:"phone" validate:"omitempty,max=20,phone"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}
