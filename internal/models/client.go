package models

import "time"

// Client is a customer identified by a normalized CPF/CNPJ document number
// (digits only). Lookup-or-create: identity fields are first-write-wins.
type Client struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:128;not null"`
	Email    string `gorm:"size:128"`
	Phone    string `gorm:"size:32"`
	Document string `gorm:"size:16;uniqueIndex"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
