package models

import "time"

// PeripheralType tags accessories handed out alongside primary assets.
type PeripheralType string

const (
	PeripheralCharger    PeripheralType = "Charger"
	PeripheralHeadphones PeripheralType = "Headphones"
	PeripheralDock       PeripheralType = "Dock"
	PeripheralMouse      PeripheralType = "Mouse"
	PeripheralKeyboard   PeripheralType = "Keyboard"
	PeripheralUSBCCable  PeripheralType = "USBCCable"
)

// Peripheral is an accessory assigned to an employee. Peripherals have no
// service tag, so campaigns only ask for a confirmation, not a tag match.
type Peripheral struct {
	ID             string         `db:"id" json:"id"`
	PeripheralType PeripheralType `db:"peripheral_type" json:"peripheral_type"`
	Model          string         `db:"model" json:"model,omitempty"`
	AssignedTo     *string        `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedToName *string        `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	AssignedDate   *time.Time     `db:"assigned_date" json:"assigned_date,omitempty"`
	Status         AssetStatus    `db:"status" json:"status"`
	Team           string         `db:"team" json:"team,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
