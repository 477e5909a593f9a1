package history

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hardhatlabs/subscout/internal/fetch"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/models"
)

// Projects found on portfolio pages rarely carry ratings, so discovered
// records get a neutral mid-scale quality.
const defaultProjectQuality = 3.0

const maxProjectPages = 5
const maxRecordsPerPage = 10

var (
	yearPattern        = regexp.MustCompile(`\b(20\d{2}|19\d{2})\b`)
	projectTypePattern = regexp.MustCompile(`(?i)commercial|residential|school|hospital|bridge|road|industrial|office|retail`)
)

var defaultLinkKeywords = []string{"project", "case-study", "news", "portfolio", "completed", "construction"}

// stateNames maps postal abbreviations to full names for text matching
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// Parser finds completed-project evidence on contractor websites
type Parser struct {
	client       *fetch.Client
	log          logger.Logger
	linkKeywords []string
	now          func() time.Time
}

// NewParser creates a project history parser
func NewParser(client *fetch.Client, log logger.Logger) *Parser {
	return &Parser{
		client:       client,
		log:          log,
		linkKeywords: defaultLinkKeywords,
		now:          time.Now,
	}
}

// EnrichProfiles fills each contractor's project list from its website.
// Failures leave the profile as-is; a contractor with no reachable
// portfolio simply has no project evidence.
func (p *Parser) EnrichProfiles(ctx context.Context, profiles []*models.Contractor, targetState string) {
	for _, profile := range profiles {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := p.EnrichProfile(ctx, profile, targetState); err != nil {
			p.log.Warn("Project history enrichment failed", "website", profile.Website, "error", err.Error())
		}
	}
}

// EnrichProfile scans a single contractor's site for project pages and
// appends discovered records to its project list.
func (p *Parser) EnrichProfile(ctx context.Context, profile *models.Contractor, targetState string) error {
	if profile.Website == "" {
		return nil
	}

	doc, err := p.client.GetDocument(ctx, profile.Website)
	if err != nil {
		return err
	}

	links := p.ProjectLinks(doc, profile.Website)
	if len(links) > maxProjectPages {
		links = links[:maxProjectPages]
	}

	for _, link := range links {
		body, err := p.client.Get(ctx, link)
		if err != nil {
			p.log.Debug("Skipping unreachable project page", "url", link)
			continue
		}

		records := p.ParsePage(string(body), link, targetState)
		profile.Projects = append(profile.Projects, records...)
	}

	return nil
}

// ProjectLinks collects same-page links that look like portfolio, news or
// case-study pages, resolved to absolute URLs.
func (p *Parser) ProjectLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}

		lower := strings.ToLower(href)
		matched := false
		for _, kw := range p.linkKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})

	return links
}

// ParsePage extracts project records from a project page's raw text. Only
// years inside the lookback window that co-occur with a target state
// mention count as evidence.
func (p *Parser) ParsePage(text, sourceURL, targetState string) []models.ProjectRecord {
	if !mentionsState(text, targetState) {
		return nil
	}

	currentYear := p.now().Year()
	projectType := ""
	if m := projectTypePattern.FindString(text); m != "" {
		projectType = strings.ToLower(m)
	}

	var records []models.ProjectRecord
	for _, raw := range yearPattern.FindAllString(text, -1) {
		year, err := strconv.Atoi(raw)
		if err != nil || year > currentYear || currentYear-year > 5 {
			continue
		}

		records = append(records, models.ProjectRecord{
			State:       strings.ToUpper(targetState),
			CompletedAt: time.Date(year, 6, 30, 0, 0, 0, 0, time.UTC),
			Quality:     defaultProjectQuality,
			Type:        projectType,
			SourceURL:   sourceURL,
		})
		if len(records) >= maxRecordsPerPage {
			break
		}
	}

	return records
}

func mentionsState(text, state string) bool {
	if state == "" {
		return false
	}

	abbrev := strings.ToUpper(state)
	if regexp.MustCompile(`\b` + regexp.QuoteMeta(abbrev) + `\b`).MatchString(text) {
		return true
	}

	if name, ok := stateNames[abbrev]; ok {
		return strings.Contains(strings.ToLower(text), strings.ToLower(name))
	}
	return false
}
