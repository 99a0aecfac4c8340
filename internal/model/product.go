package model

import (
	"strings"
	"time"
)

type IdentifierType string

const (
	IdentifierSKU  IdentifierType = "SKU"
	IdentifierEAN  IdentifierType = "EAN"
	IdentifierUPC  IdentifierType = "UPC"
	IdentifierASIN IdentifierType = "ASIN"
	IdentifierMPN  IdentifierType = "MPN"
)

func ParseIdentifierType(s string) (IdentifierType, error) {
	switch t := IdentifierType(strings.ToUpper(strings.TrimSpace(s))); t {
	case IdentifierSKU, IdentifierEAN, IdentifierUPC, IdentifierASIN, IdentifierMPN:
		return t, nil
	}
	return "", Invalid("identifierType", "%q is not one of SKU, EAN, UPC, ASIN, MPN", s)
}

type Product struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	IdentifierType  IdentifierType `json:"identifierType"`
	IdentifierValue string         `json:"identifierValue"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if _, err := ParseIdentifierType(string(p.IdentifierType)); err != nil {
		return err
	}
	if strings.TrimSpace(p.IdentifierValue) == "" {
		return Invalid("identifierValue", "must not be empty")
	}
	return nil
}
