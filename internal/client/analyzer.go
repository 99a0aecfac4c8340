package client

import (
	"context"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/publicsuffix"
	"io"
	"net/http"
	"net/url"
	"pricewatch/internal/model"
	"regexp"
	"strings"
)

const maxTitleLength = 100

// StorePreset is a known retailer with the selector that holds its price.
type StorePreset struct {
	Domain         string               `json:"domain"`
	Name           string               `json:"name"`
	Selector       string               `json:"selector"`
	IdentifierType model.IdentifierType `json:"identifierType,omitempty"`
}

var StorePresets = []StorePreset{
	{Domain: "amazon.com", Name: "Amazon", Selector: ".a-price .a-offscreen", IdentifierType: model.IdentifierASIN},
	{Domain: "bestbuy.com", Name: "Best Buy", Selector: ".priceView-customer-price span"},
	{Domain: "walmart.com", Name: "Walmart", Selector: `[itemprop="price"]`},
	{Domain: "target.com", Name: "Target", Selector: `[data-test="product-price"]`},
	{Domain: "newegg.com", Name: "Newegg", Selector: ".price-current"},
	{Domain: "bhphotovideo.com", Name: "B&H Photo", Selector: `[data-selenium="pricingPrice"]`},
	{Domain: "microcenter.com", Name: "Micro Center", Selector: "#pricing"},
	{Domain: "ebay.com", Name: "eBay", Selector: ".x-price-primary span"},
}

var asinRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/aw/d/([A-Z0-9]{10})`),
}

var titleSuffixes = []string{
	" - Amazon.com", " | Amazon.com", ": Amazon.com",
	" - Best Buy", " | Best Buy",
	" - Walmart.com", " | Walmart.com",
	" - Target", " | Target",
	" - Newegg.com", " | Newegg.com",
	" - B&H Photo", " | B&H Photo",
	" - Micro Center", " | Micro Center",
	" | eBay", " - eBay",
}

// ParsedURL is what could be detected from a product URL alone, plus the page title when fetched.
type ParsedURL struct {
	URL             string               `json:"url"`
	StoreName       string               `json:"storeName,omitempty"`
	CSSSelector     string               `json:"cssSelector,omitempty"`
	IdentifierType  model.IdentifierType `json:"identifierType,omitempty"`
	IdentifierValue string               `json:"identifierValue,omitempty"`
	ProductName     string               `json:"productName,omitempty"`
	Detected        bool                 `json:"detected"`
}

// ParseProductURL matches the registrable domain of rawURL against StorePresets.
func ParseProductURL(rawURL string) ParsedURL {
	p := ParsedURL{URL: rawURL}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return p
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return p
	}
	for _, preset := range StorePresets {
		if preset.Domain != domain {
			continue
		}
		p.StoreName = preset.Name
		p.CSSSelector = preset.Selector
		p.Detected = true
		if preset.IdentifierType == model.IdentifierASIN {
			if asin := ExtractASIN(u.Path); asin != "" {
				p.IdentifierType = model.IdentifierASIN
				p.IdentifierValue = asin
			}
		}
		break
	}
	return p
}

func ExtractASIN(path string) string {
	for _, re := range asinRegexes {
		if m := re.FindStringSubmatch(path); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// CleanTitle strips a known store suffix and shortens titles longer than 100 characters.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(title, suffix) {
			title = strings.TrimSuffix(title, suffix)
			break
		}
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength-3]) + "..."
	}
	return title
}

// FetchProductTitle returns the cleaned <title> of the page, or an empty string when it has none.
func (c Client) FetchProductTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := newRequest(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "FetchProductTitle: error creating request to URL: %s", pageURL)
	}
	resp, err := c.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "FetchProductTitle: error doing request to URL: %s", pageURL)
	}
	defer c.closeBody("FetchProductTitle", resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("FetchProductTitle: unexpected status: %s, URL: %s", resp.Status, pageURL)
	}

	node, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", errors.Wrapf(err, "FetchProductTitle: error parsing HTML of URL: %s", pageURL)
	}
	title := findTitle(node)
	if title == nil {
		return "", nil
	}
	return CleanTitle(textContent(title)), nil
}

func findTitle(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != nil {
			return t
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
