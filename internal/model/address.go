package model

import "github.com/google/uuid"

const (
	AddressTypeBilling  = "billing"
	AddressTypeShipping = "shipping"
	AddressTypeOrigin   = "origin"
)

// Owner types stored in addressable_type
const (
	AddressOwnerPartner = "partners"
	AddressOwnerClient  = "clients"
)

// Address belongs to any addressable owner (partners, clients) through
// the addressable_type/addressable_id pair.
type Address struct {
	Base
	AddressableID   uuid.UUID `gorm:"type:uuid;not null;index:idx_addressable" json:"addressable_id"`
	AddressableType string    `gorm:"type:varchar(50);not null;index:idx_addressable" json:"addressable_type"`
	Type            string    `gorm:"type:varchar(20);not null" json:"type"`
	Street          string    `gorm:"type:varchar(255);not null" json:"street"`
	Number          string    `gorm:"type:varchar(20)" json:"number"`
	Complement      string    `gorm:"type:varchar(255)" json:"complement"`
	District        string    `gorm:"type:varchar(100)" json:"district"`
	City            string    `gorm:"type:varchar(100);not null" json:"city"`
	State           string    `gorm:"type:varchar(50)" json:"state"`
	ZipCode         string    `gorm:"type:varchar(20)" json:"zip_code"`
	IsDefault       bool      `gorm:"default:false" json:"is_default"`
}
