package database

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/model"
	"time"
)

type productRecord struct {
	ID              string             `bson:"_id"`
	Name            string             `bson:"name"`
	IdentifierType  string             `bson:"identifier_type"`
	IdentifierValue string             `bson:"identifier_value"`
	CreatedAt       primitive.DateTime `bson:"created_at"`
}

type sourceRecord struct {
	ID          string             `bson:"_id"`
	ProductID   string             `bson:"product_id"`
	StoreName   string             `bson:"store_name"`
	URL         string             `bson:"url"`
	CSSSelector string             `bson:"css_selector"`
	Currency    string             `bson:"currency"`
	IsActive    bool               `bson:"is_active"`
	CreatedAt   primitive.DateTime `bson:"created_at"`
}

type observationRecord struct {
	ID        string             `bson:"_id"`
	SourceID  string             `bson:"source_id"`
	Price     float64            `bson:"pr"`
	Currency  string             `bson:"cur"`
	Timestamp primitive.DateTime `bson:"ts"`
}

// alertRecord stores the alert state as the isActive/isTriggered pair.
type alertRecord struct {
	ID          string              `bson:"_id"`
	ProductID   string              `bson:"product_id"`
	SourceID    string              `bson:"source_id"`
	TargetPrice float64             `bson:"target_price"`
	WebhookURL  string              `bson:"webhook_url,omitempty"`
	IsActive    bool                `bson:"is_active"`
	IsTriggered bool                `bson:"is_triggered"`
	CreatedAt   primitive.DateTime  `bson:"created_at"`
	TriggeredAt *primitive.DateTime `bson:"triggered_at,omitempty"`
}

type settingRecord struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func newProductRecord(p model.Product) productRecord {
	return productRecord{
		ID:              p.ID,
		Name:            p.Name,
		IdentifierType:  string(p.IdentifierType),
		IdentifierValue: p.IdentifierValue,
		CreatedAt:       primitive.NewDateTimeFromTime(p.CreatedAt),
	}
}

func (r productRecord) toModel() model.Product {
	return model.Product{
		ID:              r.ID,
		Name:            r.Name,
		IdentifierType:  model.IdentifierType(r.IdentifierType),
		IdentifierValue: r.IdentifierValue,
		CreatedAt:       r.CreatedAt.Time().UTC(),
	}
}

func newSourceRecord(s model.Source) sourceRecord {
	return sourceRecord{
		ID:          s.ID,
		ProductID:   s.ProductID,
		StoreName:   s.StoreName,
		URL:         s.URL,
		CSSSelector: s.CSSSelector,
		Currency:    s.Currency,
		IsActive:    s.IsActive,
		CreatedAt:   primitive.NewDateTimeFromTime(s.CreatedAt),
	}
}

func (r sourceRecord) toModel() model.Source {
	return model.Source{
		ID:          r.ID,
		ProductID:   r.ProductID,
		StoreName:   r.StoreName,
		URL:         r.URL,
		CSSSelector: r.CSSSelector,
		Currency:    r.Currency,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.Time().UTC(),
	}
}

func newObservationRecord(o model.PriceObservation) observationRecord {
	return observationRecord{
		ID:        o.ID,
		SourceID:  o.SourceID,
		Price:     o.Price,
		Currency:  o.Currency,
		Timestamp: primitive.NewDateTimeFromTime(o.Timestamp),
	}
}

func (r observationRecord) toModel() model.PriceObservation {
	return model.PriceObservation{
		ID:        r.ID,
		SourceID:  r.SourceID,
		Price:     r.Price,
		Currency:  r.Currency,
		Timestamp: r.Timestamp.Time().UTC(),
	}
}

func newAlertRecord(a model.Alert) alertRecord {
	r := alertRecord{
		ID:          a.ID,
		ProductID:   a.ProductID,
		SourceID:    a.SourceID,
		TargetPrice: a.TargetPrice,
		WebhookURL:  a.WebhookURL,
		CreatedAt:   primitive.NewDateTimeFromTime(a.CreatedAt),
	}
	r.IsActive, r.IsTriggered = a.Flags()
	if a.TriggeredAt != nil {
		t := primitive.NewDateTimeFromTime(*a.TriggeredAt)
		r.TriggeredAt = &t
	}
	return r
}

func (r alertRecord) toModel() model.Alert {
	a := model.Alert{
		ID:          r.ID,
		ProductID:   r.ProductID,
		SourceID:    r.SourceID,
		TargetPrice: r.TargetPrice,
		WebhookURL:  r.WebhookURL,
		State:       model.StateFromFlags(r.IsActive, r.IsTriggered),
		CreatedAt:   r.CreatedAt.Time().UTC(),
	}
	if r.TriggeredAt != nil {
		t := r.TriggeredAt.Time().UTC()
		a.TriggeredAt = &t
	}
	return a
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
