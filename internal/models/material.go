package models

import "time"

// Material: mağazaya özel malzeme kartı. Numara mağaza içinde tekildir.
type Material struct {
	ID        uint   `gorm:"primaryKey"`
	StoreID   uint   `gorm:"not null;uniqueIndex:idx_material_store_number"`
	Number    string `gorm:"size:50;not null;uniqueIndex:idx_material_store_number"`
	Name      string `gorm:"size:150;not null"`
	Unit      string `gorm:"size:20;not null"` // kg, adet, litre vs.
	Type      string `gorm:"size:50;index"`    // malzeme tipi (et, sebze, ambalaj...)
	ChildType string `gorm:"size:50"`          // alt tip
	CreatedAt time.Time
	UpdatedAt time.Time
}
