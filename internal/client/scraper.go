package client

import (
	"context"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"io"
	"net/http"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
	"regexp"
	"strings"
)

var priceRegex = regexp.MustCompile(`[\d,]+\.?\d*`)

// ScrapeFailure is any failed scrape attempt. It never produces a price observation.
type ScrapeFailure struct {
	SourceID string
	Reason   string
	Err      error
}

func (f *ScrapeFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("scrape of source %s failed: %s: %v", f.SourceID, f.Reason, f.Err)
	}
	return fmt.Sprintf("scrape of source %s failed: %s", f.SourceID, f.Reason)
}

func (f *ScrapeFailure) Unwrap() error {
	return f.Err
}

// CleanPrice extracts the first number of text, treating commas as thousands separators.
func CleanPrice(text string) (decimal.Decimal, error) {
	match := priceRegex.FindString(strings.TrimSpace(text))
	match = strings.ReplaceAll(match, ",", "")
	if match == "" || match == "." {
		return decimal.Decimal{}, errors.Errorf("could not extract price from %q", misc.StringLimit(text, 100))
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(match, "."))
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "could not parse price from %q", misc.StringLimit(text, 100))
	}
	return d, nil
}

func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return model.Invalid("cssSelector", "%q is not a valid CSS selector: %v", selector, err)
	}
	return nil
}

// Scrape fetches the page of src and reads the price from the first element matching its selector.
func (c Client) Scrape(ctx context.Context, src model.Source) (float64, error) {
	fail := func(reason string, err error) error {
		return &ScrapeFailure{SourceID: src.ID, Reason: reason, Err: err}
	}
	if err := ValidateSelector(src.CSSSelector); err != nil {
		return 0, fail("invalid selector", err)
	}

	req, err := newRequest(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return 0, fail("invalid request", err)
	}
	if c.Logger != nil {
		c.Logger.Debugf("Scrape: Sending request to %s, SourceID: %s", src.URL, src.ID)
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, fail("request failed", err)
	}
	defer c.closeBody("Scrape", resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fail("unexpected status "+resp.Status, nil)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return 0, fail("could not parse page", err)
	}
	sel := doc.Find(src.CSSSelector).First()
	if sel.Length() == 0 {
		return 0, fail("element not found for selector: "+src.CSSSelector, nil)
	}
	price, err := CleanPrice(sel.Text())
	if err != nil {
		return 0, fail("no price in element", err)
	}
	f, _ := price.Float64()
	return f, nil
}
