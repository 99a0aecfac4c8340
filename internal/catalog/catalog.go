// Package catalog keeps the products being tracked and the store sources they are scraped from.
package catalog

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"pricewatch/internal/model"
	"strings"
	"sync"
	"time"
)

type Catalog struct {
	mu              sync.RWMutex
	products        map[string]*model.Product
	sources         map[string]*model.Source
	defaultCurrency string
	now             func() time.Time
}

func New(defaultCurrency string) *Catalog {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Catalog{
		products:        make(map[string]*model.Product),
		sources:         make(map[string]*model.Source),
		defaultCurrency: strings.ToUpper(defaultCurrency),
		now:             time.Now,
	}
}

// SetClock replaces time.Now for creation timestamps.
func (c *Catalog) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Catalog) DefaultCurrency() string {
	return c.defaultCurrency
}

func (c *Catalog) AddProduct(name string, idType string, idValue string) (model.Product, error) {
	t, err := model.ParseIdentifierType(idType)
	if err != nil {
		return model.Product{}, err
	}
	p := model.Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(name),
		IdentifierType:  t,
		IdentifierValue: strings.TrimSpace(idValue),
		CreatedAt:       c.now(),
	}
	if err = p.Validate(); err != nil {
		return model.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = &p
	return p, nil
}

// UpdateProduct replaces the name and identifier of an existing product.
func (c *Catalog) UpdateProduct(id string, name string, idType string, idValue string) (model.Product, error) {
	t, err := model.ParseIdentifierType(idType)
	if err != nil {
		return model.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return model.Product{}, errors.Wrapf(model.ErrNotFound, "product %s", id)
	}
	updated := *p
	updated.Name = strings.TrimSpace(name)
	updated.IdentifierType = t
	updated.IdentifierValue = strings.TrimSpace(idValue)
	if err = updated.Validate(); err != nil {
		return model.Product{}, err
	}
	*p = updated
	return updated, nil
}

func (c *Catalog) Product(id string) (model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return model.Product{}, errors.Wrapf(model.ErrNotFound, "product %s", id)
	}
	return *p, nil
}

// Products returns every product, newest first.
func (c *Catalog) Products() []model.Product {
	c.mu.RLock()
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Product) int {
		if cmp := b.CreatedAt.Compare(a.CreatedAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// DeleteProduct removes the product with all its sources and returns the removed source ids.
func (c *Catalog) DeleteProduct(id string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "product %s", id)
	}
	delete(c.products, id)
	removed := make([]string, 0)
	for sid, s := range c.sources {
		if s.ProductID == id {
			delete(c.sources, sid)
			removed = append(removed, sid)
		}
	}
	slices.Sort(removed)
	return removed, nil
}

// AddSource registers a store listing for an existing product. An empty currency takes the catalog default.
func (c *Catalog) AddSource(productID, storeName, rawURL, selector, currency string) (model.Source, error) {
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = c.defaultCurrency
	}
	s := model.Source{
		ID:          uuid.NewString(),
		ProductID:   productID,
		StoreName:   strings.TrimSpace(storeName),
		URL:         strings.TrimSpace(rawURL),
		CSSSelector: strings.TrimSpace(selector),
		Currency:    currency,
		IsActive:    true,
		CreatedAt:   c.now(),
	}
	if err := s.Validate(); err != nil {
		return model.Source{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[productID]; !ok {
		return model.Source{}, errors.Wrapf(model.ErrNotFound, "product %s", productID)
	}
	c.sources[s.ID] = &s
	return s, nil
}

func (c *Catalog) Source(id string) (model.Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sources[id]
	if !ok {
		return model.Source{}, errors.Wrapf(model.ErrNotFound, "source %s", id)
	}
	return *s, nil
}

// Sources returns the sources of productID, or of every product when productID is empty, oldest first.
func (c *Catalog) Sources(productID string) []model.Source {
	c.mu.RLock()
	out := make([]model.Source, 0, len(c.sources))
	for _, s := range c.sources {
		if productID == "" || s.ProductID == productID {
			out = append(out, *s)
		}
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Source) int {
		if cmp := a.CreatedAt.Compare(b.CreatedAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (c *Catalog) ActiveSources() []model.Source {
	all := c.Sources("")
	active := all[:0]
	for _, s := range all {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}

func (c *Catalog) SetSourceActive(id string, active bool) (model.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sources[id]
	if !ok {
		return model.Source{}, errors.Wrapf(model.ErrNotFound, "source %s", id)
	}
	s.IsActive = active
	return *s, nil
}

func (c *Catalog) DeleteSource(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sources[id]; !ok {
		return errors.Wrapf(model.ErrNotFound, "source %s", id)
	}
	delete(c.sources, id)
	return nil
}

// Restore loads persisted products and sources. Sources of unknown products are skipped and returned.
func (c *Catalog) Restore(products []model.Product, sources []model.Source) (orphans []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range products {
		p := products[i]
		c.products[p.ID] = &p
	}
	for i := range sources {
		s := sources[i]
		if _, ok := c.products[s.ProductID]; !ok {
			orphans = append(orphans, s.ID)
			continue
		}
		c.sources[s.ID] = &s
	}
	return orphans
}
