package service

import (
	"fmt"

	"erpcrm/internal/model"
)

type AddressPayload struct {
	Type       string `json:"type" binding:"required,oneof=billing shipping origin"`
	Street     string `json:"street" binding:"required,max=255"`
	Number     string `json:"number" binding:"max=20"`
	Complement string `json:"complement" binding:"max=255"`
	District   string `json:"district" binding:"max=100"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=50"`
	ZipCode    string `json:"zip_code" binding:"max=20"`
	IsDefault  bool   `json:"is_default"`
}

var validAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeShipping: true,
	model.AddressTypeOrigin:   true,
}

func validateAddresses(addresses []AddressPayload) error {
	defaults := map[string]bool{}
	for i, addr := range addresses {
		if !validAddressTypes[addr.Type] {
			return fieldError(fmt.Sprintf("addresses.%d.type", i), "must be one of: billing, shipping, origin")
		}
		if addr.Street == "" {
			return fieldError(fmt.Sprintf("addresses.%d.street", i), "is required")
		}
		if addr.City == "" {
			return fieldError(fmt.Sprintf("addresses.%d.city", i), "is required")
		}
		if addr.IsDefault {
			if defaults[addr.Type] {
				return fieldError(fmt.Sprintf("addresses.%d.is_default", i), "only one default address per type")
			}
			defaults[addr.Type] = true
		}
	}
	return nil
}

func toAddressModels(payloads []AddressPayload) []model.Address {
	addresses := make([]model.Address, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, model.Address{
			Type:       p.Type,
			Street:     p.Street,
			Number:     p.Number,
			Complement: p.Complement,
			District:   p.District,
			City:       p.City,
			State:      p.State,
			ZipCode:    p.ZipCode,
			IsDefault:  p.IsDefault,
		})
	}
	return addresses
}

// defaultAddress returns the default address of a type, or the first one
func defaultAddress(addresses []model.Address, addrType string) *model.Address {
	var first *model.Address
	for i := range addresses {
		if addresses[i].Type != addrType {
			continue
		}
		if addresses[i].IsDefault {
			return &addresses[i]
		}
		if first == nil {
			first = &addresses[i]
		}
	}
	return first
}

func formatAddress(a *model.Address) string {
	if a == nil {
		return ""
	}
	s := a.Street
	if a.Number != "" {
		s += ", " + a.Number
	}
	if a.District != "" {
		s += " - " + a.District
	}
	s += " - " + a.City
	if a.State != "" {
		s += "/" + a.State
	}
	if a.ZipCode != "" {
		s += " " + a.ZipCode
	}
	return s
}
