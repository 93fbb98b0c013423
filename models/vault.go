package models

import "time"

// Vault представляет место хранения комиксов с ограниченной вместимостью.
type Vault struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" validate:"required,max=100"`
	Location    string    `db:"location" json:"location" validate:"required,max=255"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity" validate:"min=1"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// VaultCapacity описывает текущую заполненность хранилища.
type VaultCapacity struct {
	VaultID      int64 `json:"vault_id"`
	MaxCapacity  int   `json:"max_capacity"`
	CurrentTotal int   `json:"current_total"`
	Available    int   `json:"available"`
}
