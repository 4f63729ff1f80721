package models

import "time"

type Store struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:20;not null;unique"` // kaynak sistemdeki mağaza kodu
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"` // Opsiyonel telefon
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
