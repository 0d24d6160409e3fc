package models

import "time"

// Client is a firm's customer record. All lookups are tenant-scoped
// by FirmID.
type Client struct {
	ID        string    `json:"id" db:"id"`
	FirmID    string    `json:"firmId" db:"firm_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Company   string    `json:"company,omitempty" db:"company"`
	Status    string    `json:"status" db:"status"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

const ClientStatusActive = "active"
