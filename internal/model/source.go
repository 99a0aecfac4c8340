package model

import (
	"net/url"
	"strings"
	"time"
)

// Source is one retailer listing of a Product; it is the unit of scraping and of price history.
type Source struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	StoreName   string    `json:"storeName"`
	URL         string    `json:"url"`
	CSSSelector string    `json:"cssSelector"`
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s Source) Validate() error {
	if s.ProductID == "" {
		return Invalid("productId", "must not be empty")
	}
	if strings.TrimSpace(s.StoreName) == "" {
		return Invalid("storeName", "must not be empty")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Invalid("url", "%q is not an absolute http(s) URL", s.URL)
	}
	if strings.TrimSpace(s.CSSSelector) == "" {
		return Invalid("cssSelector", "must not be empty")
	}
	return nil
}
