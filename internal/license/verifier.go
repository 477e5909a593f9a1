package license

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hardhatlabs/subscout/internal/fetch"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/models"
)

const searchPath = "/contractorsearch/ContractorSearch.aspx"

// Expiration dates on the registry render as 1/2/2006 or 01/02/2006
var expirationLayouts = []string{"1/2/2006", "01/02/2006", "2006-01-02"}

// Verification is the outcome of a registry lookup
type Verification struct {
	Status    string
	ExpiresAt *time.Time
}

// Verifier checks contractor licenses against the TDLR public registry
type Verifier struct {
	client  *fetch.Client
	baseURL string
	log     logger.Logger
}

// NewVerifier creates a verifier against the given registry base URL
func NewVerifier(client *fetch.Client, baseURL string, log logger.Logger) *Verifier {
	return &Verifier{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Verify looks up a single license number. A missing number or a failed
// lookup yields unknown status rather than an error so batch runs keep
// going.
func (v *Verifier) Verify(ctx context.Context, licenseNumber string) Verification {
	if licenseNumber == "" {
		return Verification{Status: models.LicenseStatusUnknown}
	}

	params := url.Values{}
	params.Set("SearchType", "License")
	params.Set("LicenseNumber", licenseNumber)
	lookupURL := fmt.Sprintf("%s%s?%s", v.baseURL, searchPath, params.Encode())

	doc, err := v.client.GetDocument(ctx, lookupURL)
	if err != nil {
		v.log.Warn("License lookup failed", "license", licenseNumber, "error", err.Error())
		return Verification{Status: models.LicenseStatusUnknown}
	}

	return ParseVerification(doc)
}

// VerifyBatch verifies every profile in place, filling license status and
// expiration from the registry.
func (v *Verifier) VerifyBatch(ctx context.Context, profiles []*models.Contractor) {
	for _, p := range profiles {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := v.Verify(ctx, p.LicenseNumber)
		p.LicenseStatus = result.Status
		if result.ExpiresAt != nil {
			p.LicenseExpiresAt = result.ExpiresAt
		}
	}
}

// ParseVerification reads license status and expiration out of a registry
// result page. The page lays out details as a table with header cells
// naming each field.
func ParseVerification(doc *goquery.Document) Verification {
	result := Verification{Status: models.LicenseStatusUnknown}

	statusText := findDetailValue(doc, "License Status")
	switch {
	case strings.Contains(strings.ToLower(statusText), "active"):
		result.Status = models.LicenseStatusActive
	case strings.Contains(strings.ToLower(statusText), "expired"):
		result.Status = models.LicenseStatusExpired
	}

	if expText := findDetailValue(doc, "License Expiration Date"); expText != "" {
		for _, layout := range expirationLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(expText)); err == nil {
				result.ExpiresAt = &t
				break
			}
		}
	}

	return result
}

func findDetailValue(doc *goquery.Document, label string) string {
	value := ""
	doc.Find("th").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == label {
			value = strings.TrimSpace(s.Next().Text())
			return false
		}
		return true
	})
	return value
}
