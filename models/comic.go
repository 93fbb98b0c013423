package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comic представляет позицию каталога комиксов.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
// Тэги `validate` проверяются пакетом validation.
type Comic struct {
	ID          int64            `db:"id" json:"id"`
	SKU         string           `db:"sku" json:"sku" validate:"required,max=50"`
	Name        string           `db:"name" json:"name" validate:"required,max=150"`
	Description *string          `db:"description" json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       *decimal.Decimal `db:"price" json:"price,omitempty" validate:"omitempty,gte=0"` // может быть NULL
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}
