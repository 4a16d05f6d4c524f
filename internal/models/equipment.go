package models

import "time"

// EquipmentCategory groups bulk equipment that is counted rather than
// tracked per unit.
type EquipmentCategory string

const (
	EquipmentNetwork    EquipmentCategory = "network"
	EquipmentServers    EquipmentCategory = "servers"
	EquipmentAudioVideo EquipmentCategory = "audioVideo"
	EquipmentFurniture  EquipmentCategory = "furniture"
	EquipmentOther      EquipmentCategory = "other"
)

// EquipmentCount is a quantity entry for a category of bulk equipment at a
// location.
type EquipmentCount struct {
	ID        string            `db:"id" json:"id"`
	Category  EquipmentCategory `db:"category" json:"category"`
	ItemName  string            `db:"item_name" json:"item_name"`
	Quantity  int               `db:"quantity" json:"quantity"`
	UnitValue float64           `db:"unit_value" json:"unit_value"`
	Location  string            `db:"location" json:"location,omitempty"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// EquipmentCategoryStats aggregates quantity and value per category.
type EquipmentCategoryStats struct {
	Category      EquipmentCategory `db:"category" json:"category"`
	TotalQuantity int               `db:"total_quantity" json:"total_quantity"`
	TotalValue    float64           `db:"total_value" json:"total_value"`
}

// EquipmentStats is the directory-wide rollup.
type EquipmentStats struct {
	TotalQuantity int                      `json:"total_quantity"`
	TotalValue    float64                  `json:"total_value"`
	ByCategory    []EquipmentCategoryStats `json:"by_category"`
}
