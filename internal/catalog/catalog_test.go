package catalog

import (
	"errors"
	"pricewatch/internal/model"
	"testing"
)

func TestAddProductValidation(t *testing.T) {
	c := New("usd")
	tests := []struct {
		name, idType, idValue string
		valid                 bool
	}{
		{"Switch", "ASIN", "B0BSHF7WHW", true},
		{"Switch", "upc", "045496882389", true},
		{"", "SKU", "1", false},
		{"Switch", "ISBN", "1", false},
		{"Switch", "EAN", " ", false},
	}
	for _, tt := range tests {
		p, err := c.AddProduct(tt.name, tt.idType, tt.idValue)
		if tt.valid && err != nil {
			t.Errorf("AddProduct(%q, %q, %q) err = %v", tt.name, tt.idType, tt.idValue, err)
		}
		if !tt.valid && !model.IsValidation(err) {
			t.Errorf("AddProduct(%q, %q, %q) = %+v, want validation error", tt.name, tt.idType, tt.idValue, p)
		}
	}
	if got := len(c.Products()); got != 2 {
		t.Errorf("stored %d products, want 2", got)
	}
}

func TestAddSource(t *testing.T) {
	c := New("usd")
	p, _ := c.AddProduct("Switch", "SKU", "1")

	s, err := c.AddSource(p.ID, "Amazon", "https://www.amazon.com/dp/B0BSHF7WHW", "#price", "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Currency != "USD" || !s.IsActive {
		t.Errorf("source = %+v", s)
	}
	if _, err = c.AddSource("missing", "Amazon", "https://a.com", "#p", ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown product err = %v", err)
	}
	if _, err = c.AddSource(p.ID, "Amazon", "ftp://a.com", "#p", ""); !model.IsValidation(err) {
		t.Errorf("bad url err = %v", err)
	}
	if _, err = c.AddSource(p.ID, "Amazon", "https://a.com", "", ""); !model.IsValidation(err) {
		t.Errorf("empty selector err = %v", err)
	}
}

func TestSetSourceActive(t *testing.T) {
	c := New("")
	p, _ := c.AddProduct("Switch", "SKU", "1")
	s, _ := c.AddSource(p.ID, "Amazon", "https://a.com/x", "#p", "eur")

	if _, err := c.SetSourceActive(s.ID, false); err != nil {
		t.Fatal(err)
	}
	if len(c.ActiveSources()) != 0 {
		t.Error("inactive source listed as active")
	}
	if got, _ := c.Source(s.ID); got.IsActive || got.Currency != "EUR" {
		t.Errorf("source = %+v", got)
	}
}

func TestDeleteProductCascades(t *testing.T) {
	c := New("")
	p1, _ := c.AddProduct("Switch", "SKU", "1")
	p2, _ := c.AddProduct("Kindle", "SKU", "2")
	s1, _ := c.AddSource(p1.ID, "Amazon", "https://a.com/1", "#p", "")
	s2, _ := c.AddSource(p1.ID, "Target", "https://t.com/1", "#p", "")
	keep, _ := c.AddSource(p2.ID, "Amazon", "https://a.com/2", "#p", "")

	removed, err := c.DeleteProduct(p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 || !(removed[0] == s1.ID || removed[0] == s2.ID) {
		t.Errorf("removed = %v", removed)
	}
	if _, err = c.Source(s1.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("cascaded source still reachable: %v", err)
	}
	if all := c.Sources(""); len(all) != 1 || all[0].ID != keep.ID {
		t.Errorf("sources = %+v", all)
	}
	if _, err = c.DeleteProduct(p1.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestRestoreSkipsOrphans(t *testing.T) {
	c := New("")
	orphans := c.Restore(
		[]model.Product{{ID: "p1", Name: "Switch", IdentifierType: model.IdentifierSKU, IdentifierValue: "1"}},
		[]model.Source{{ID: "s1", ProductID: "p1"}, {ID: "s2", ProductID: "gone"}},
	)
	if len(orphans) != 1 || orphans[0] != "s2" {
		t.Errorf("orphans = %v", orphans)
	}
	if len(c.Sources("p1")) != 1 {
		t.Error("restored source missing")
	}
}

func TestUpdateProduct(t *testing.T) {
	c := New("")
	p, _ := c.AddProduct("Switch", "SKU", "1")
	if _, err := c.UpdateProduct(p.ID, "", "SKU", "1"); !model.IsValidation(err) {
		t.Errorf("empty name err = %v", err)
	}
	updated, err := c.UpdateProduct(p.ID, "Switch OLED", "asin", "B09V")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Switch OLED" || updated.IdentifierType != model.IdentifierASIN || !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("updated = %+v", updated)
	}
}
