package models

// Recipient holds the contact details a score report is delivered to.
type Recipient struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}
