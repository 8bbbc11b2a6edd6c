// Package companies manages tenant records and their shop locations.
package companies

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("company not found")

var ErrLocationNotFound = errors.New("location not found")

type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Location struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Timezone *string `json:"timezone" validate:"omitempty,max=64"`
	Currency *string `json:"currency" validate:"omitempty,len=3"`
}

type CreateLocationRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
}
