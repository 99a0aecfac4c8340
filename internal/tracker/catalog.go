package tracker

import (
	"context"
	"github.com/pkg/errors"
	"pricewatch/internal/client"
	"pricewatch/internal/database"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
)

func (t *Tracker) AddProduct(ctx context.Context, name, idType, idValue string) (model.Product, error) {
	p, err := t.catalog.AddProduct(name, idType, idValue)
	if err != nil {
		return p, err
	}
	if err = t.persist(ctx, "AddProduct", func(ctx context.Context, s database.Store) error {
		return s.ProductSave(ctx, p)
	}); err != nil {
		_, _ = t.catalog.DeleteProduct(p.ID)
		return model.Product{}, errors.WithMessage(err, "AddProduct: error saving product")
	}
	t.logger.Infof("AddProduct: Product added, ProductID: %s, name: %s", p.ID, misc.LogName(p.Name))
	return p, nil
}

func (t *Tracker) UpdateProduct(ctx context.Context, id, name, idType, idValue string) (model.Product, error) {
	p, err := t.catalog.UpdateProduct(id, name, idType, idValue)
	if err != nil {
		return p, err
	}
	_ = t.persist(ctx, "UpdateProduct", func(ctx context.Context, s database.Store) error {
		return s.ProductSave(ctx, p)
	})
	return p, nil
}

func (t *Tracker) Product(id string) (model.Product, error) {
	return t.catalog.Product(id)
}

func (t *Tracker) Products() []model.Product {
	return t.catalog.Products()
}

// DeleteProduct removes the product, its sources, their alerts and their price history.
func (t *Tracker) DeleteProduct(ctx context.Context, id string) error {
	sourceIDs, err := t.catalog.DeleteProduct(id)
	if err != nil {
		return err
	}
	for _, sid := range sourceIDs {
		t.dropSource(ctx, sid)
	}
	_ = t.persist(ctx, "DeleteProduct", func(ctx context.Context, s database.Store) error {
		return s.ProductDelete(ctx, id)
	})
	t.logger.Infof("DeleteProduct: Product deleted, ProductID: %s, sources: %d", id, len(sourceIDs))
	return nil
}

// dropSource removes everything hanging off a source already removed from the catalog.
func (t *Tracker) dropSource(ctx context.Context, sourceID string) {
	t.history.Drop(sourceID)
	removed := t.alerts.DeleteBySource(sourceID)
	if err := t.status.Delete(ctx, sourceID); err != nil {
		t.logger.Errorf("dropSource: Error deleting scrape status, SourceID: %s, err: %v", sourceID, err)
	}
	t.logger.Debugf("dropSource: Source dropped, SourceID: %s, alerts: %d", sourceID, len(removed))
}

func (t *Tracker) AddSource(ctx context.Context, productID, storeName, rawURL, selector, currency string) (model.Source, error) {
	if err := client.ValidateSelector(selector); err != nil {
		return model.Source{}, err
	}
	src, err := t.catalog.AddSource(productID, storeName, rawURL, selector, currency)
	if err != nil {
		return src, err
	}
	if err = t.persist(ctx, "AddSource", func(ctx context.Context, s database.Store) error {
		return s.SourceSave(ctx, src)
	}); err != nil {
		_ = t.catalog.DeleteSource(src.ID)
		return model.Source{}, errors.WithMessage(err, "AddSource: error saving source")
	}
	t.logger.Infof("AddSource: Source added, SourceID: %s, ProductID: %s, store: %s", src.ID, productID, misc.LogName(src.StoreName))
	return src, nil
}

func (t *Tracker) Source(id string) (model.Source, error) {
	return t.catalog.Source(id)
}

// Sources lists the sources of productID, or every source when it is empty.
func (t *Tracker) Sources(productID string) []model.Source {
	return t.catalog.Sources(productID)
}

func (t *Tracker) SetSourceActive(ctx context.Context, id string, active bool) (model.Source, error) {
	src, err := t.catalog.SetSourceActive(id, active)
	if err != nil {
		return src, err
	}
	_ = t.persist(ctx, "SetSourceActive", func(ctx context.Context, s database.Store) error {
		return s.SourceSave(ctx, src)
	})
	return src, nil
}

func (t *Tracker) DeleteSource(ctx context.Context, id string) error {
	if err := t.catalog.DeleteSource(id); err != nil {
		return err
	}
	t.dropSource(ctx, id)
	_ = t.persist(ctx, "DeleteSource", func(ctx context.Context, s database.Store) error {
		return s.SourceDelete(ctx, id)
	})
	t.logger.Infof("DeleteSource: Source deleted, SourceID: %s", id)
	return nil
}
