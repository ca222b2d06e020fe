package model

import "time"

// Message is a contact-form message left by a visitor.
type Message struct {
	ID        string     `json:"id"`
	LastName  string     `json:"last_name"`
	FirstName string     `json:"first_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Body      string     `json:"message"`
	CreatedAt *time.Time `json:"created_at"`
	Lifecycle Lifecycle  `json:"lifecycle"`
	Read      bool       `json:"read"`
}
