package models

// User is an authenticated firm member.
type User struct {
	ID        string `json:"id" db:"id"`
	FirmID    string `json:"firmId" db:"firm_id"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"firstName,omitempty" db:"first_name"`
	LastName  string `json:"lastName,omitempty" db:"last_name"`
	Role      string `json:"role" db:"role"`
}
