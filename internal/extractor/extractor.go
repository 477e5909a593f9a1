package extractor

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/fetch"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/models"
)

// Field extraction patterns. Bond amounts capture the numeric part and an
// optional scale suffix so "$1.5 million bond" and "$500K bond" both parse.
var (
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`(?:\+?\d{1,2}\s?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)
	licensePattern = regexp.MustCompile(`(?i)(?:lic(?:ense)?|reg(?:istration)?)[#:]?\s*([A-Z0-9-]{5,15})`)
	bondPattern    = regexp.MustCompile(`(?i)\$?(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s?(million|M|thousand|K)?\s+bond`)
	addressPattern = regexp.MustCompile(`\d+\s+[\w\s]+\s(?:Ave|St|Rd|Blvd|Dr)[\w\s,]+[A-Z]{2}\s\d{5}`)
	yearsPattern   = regexp.MustCompile(`(?i)(\d{1,2})\+?\s+years?\s+(?:of\s+)?(?:experience|in\s+business)`)
	sincePattern   = regexp.MustCompile(`(?i)(?:since|established|est\.?)\s+((?:19|20)\d{2})`)
	reviewsPattern = regexp.MustCompile(`(?i)(\d{1,4})\+?\s+(?:positive\s+|five.star\s+|5.star\s+)?reviews`)
	awardPattern   = regexp.MustCompile(`(?i)award`)
	unionPattern   = regexp.MustCompile(`(?i)\bunion\s+(?:member|affiliated|contractor|labor|shop)\b`)
)

const maxEvidenceLength = 1000

// Extractor pulls contractor profiles out of candidate websites
type Extractor struct {
	client *fetch.Client
	log    logger.Logger
	now    func() time.Time
}

// New creates an extractor using the shared fetch client
func New(client *fetch.Client, log logger.Logger) *Extractor {
	return &Extractor{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// ExtractProfiles fetches and parses every URL concurrently. A URL that
// cannot be fetched still yields a minimal profile so downstream scoring
// can rank it on whatever evidence exists. The second return value counts
// failed fetches.
func (e *Extractor) ExtractProfiles(ctx context.Context, urls []string) ([]*models.Contractor, int) {
	profiles := make([]*models.Contractor, len(urls))
	var failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, u := range urls {
		if u == "" {
			profiles[i] = e.minimalProfile(u)
			continue
		}

		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()

			profile, err := e.ExtractProfile(ctx, pageURL)
			if err != nil {
				e.log.Warn("Profile extraction failed", "url", pageURL, "error", err.Error())
				profile = e.minimalProfile(pageURL)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			profiles[idx] = profile
		}(i, u)
	}

	wg.Wait()

	result := make([]*models.Contractor, 0, len(profiles))
	for _, p := range profiles {
		if p != nil {
			result = append(result, p)
		}
	}
	return result, int(failed)
}

// ExtractProfile fetches a single website and builds a contractor profile
func (e *Extractor) ExtractProfile(ctx context.Context, pageURL string) (*models.Contractor, error) {
	doc, err := e.client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return e.ParseDocument(doc, pageURL), nil
}

// ParseDocument builds a contractor profile from a parsed page
func (e *Extractor) ParseDocument(doc *goquery.Document, pageURL string) *models.Contractor {
	text := normalizeWhitespace(doc.Find("body").Text())

	contractor := &models.Contractor{
		ID:            uuid.New(),
		Name:          extractName(doc, pageURL),
		Website:       pageURL,
		Email:         emailPattern.FindString(text),
		Phone:         phonePattern.FindString(text),
		EvidenceURL:   pageURL,
		LastCheckedAt: e.now().UTC(),
		Projects:      models.ProjectList{},
	}

	if m := licensePattern.FindStringSubmatch(text); m != nil {
		contractor.LicenseNumber = m[1]
		contractor.LicenseStatus = string(models.LicenseStatusUnknown)
	}

	contractor.BondAmount = ParseBond(text)
	contractor.YearsInBusiness = e.parseYears(text)
	contractor.UnionMember = unionPattern.MatchString(text)

	if m := reviewsPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			contractor.PositiveReviews = n
		}
	}
	contractor.Awards = countAwards(text)

	if addr := addressPattern.FindString(text); addr != "" {
		city, state := parseAddress(addr)
		contractor.City = city
		contractor.State = state
	}

	if len(text) > maxEvidenceLength {
		contractor.EvidenceText = text[:maxEvidenceLength]
	} else {
		contractor.EvidenceText = text
	}

	return contractor
}

// ParseBond converts bond wording to a dollar amount. Returns 0 when no
// bond is mentioned.
func ParseBond(text string) int64 {
	m := bondPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}

	multiplier := 1.0
	switch strings.ToLower(m[2]) {
	case "million", "m":
		multiplier = 1_000_000
	case "thousand", "k":
		multiplier = 1_000
	}

	return int64(amount * multiplier)
}

func (e *Extractor) parseYears(text string) int {
	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := sincePattern.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			years := e.now().Year() - year
			if years >= 0 {
				return years
			}
		}
	}
	return 0
}

func countAwards(text string) int {
	count := len(awardPattern.FindAllString(text, 10))
	if count > 10 {
		count = 10
	}
	return count
}

// extractName prefers Open Graph metadata, then the title tag, then the
// site's domain.
func extractName(doc *goquery.Document, pageURL string) string {
	name := ""
	doc.Find("meta").EachWithBreak(func(i int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		if prop == "og:site_name" || prop == "og:title" {
			if content, ok := s.Attr("content"); ok && content != "" {
				name = content
				return false
			}
		}
		return true
	})
	if name != "" {
		return strings.TrimSpace(name)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return domainOf(pageURL)
}

func parseAddress(addr string) (city, state string) {
	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 2 {
		city = parts[len(parts)-2]
	}
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if len(last) >= 2 {
			state = last[:2]
		}
	}
	return city, state
}

func domainOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *Extractor) minimalProfile(pageURL string) *models.Contractor {
	return &models.Contractor{
		ID:            uuid.New(),
		Name:          domainOf(pageURL),
		Website:       pageURL,
		EvidenceURL:   pageURL,
		LicenseStatus: string(models.LicenseStatusUnknown),
		Projects:      models.ProjectList{},
		LastCheckedAt: e.now().UTC(),
	}
}
