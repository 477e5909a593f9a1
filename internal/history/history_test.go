package history

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hardhatlabs/subscout/internal/logger"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p := NewParser(nil, logger.NewSimpleLogger())
	p.now = func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return p
}

func TestProjectLinks(t *testing.T) {
	html := `
	<html><body>
		<a href="/projects/hospital-wing">Hospital Wing</a>
		<a href="/about">About Us</a>
		<a href="https://other.example.com/portfolio/2024">Portfolio</a>
		<a href="/news/award">News</a>
		<a href="/projects/hospital-wing">Duplicate</a>
		<a href="/contact">Contact</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse test HTML: %v", err)
	}

	p := newTestParser(t)
	links := p.ProjectLinks(doc, "https://acme.example.com")

	want := []string{
		"https://acme.example.com/projects/hospital-wing",
		"https://other.example.com/portfolio/2024",
		"https://acme.example.com/news/award",
	}
	if len(links) != len(want) {
		t.Fatalf("Expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i, w := range want {
		if links[i] != w {
			t.Errorf("Link %d: expected %q, got %q", i, w, links[i])
		}
	}
}

func TestParsePage(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name      string
		text      string
		state     string
		wantCount int
		wantType  string
	}{
		{
			name:      "recent texas projects",
			text:      "Completed the Austin office tower in 2023 and a Dallas retail center in 2024. Proudly serving Texas.",
			state:     "TX",
			wantCount: 2,
			wantType:  "office",
		},
		{
			name:      "abbreviation mention counts",
			text:      "Warehouse project, Houston TX, finished 2022.",
			state:     "TX",
			wantCount: 1,
		},
		{
			name:      "old projects excluded",
			text:      "Texas bridge work completed in 2012 and 2015.",
			state:     "TX",
			wantCount: 0,
		},
		{
			name:      "future years excluded",
			text:      "Texas school campus breaking ground in 2027.",
			state:     "TX",
			wantCount: 0,
		},
		{
			name:      "no state mention yields nothing",
			text:      "Completed a commercial build in 2024.",
			state:     "TX",
			wantCount: 0,
		},
		{
			name:      "different state matched by full name",
			text:      "Finished the Denver hospital in Colorado in 2023.",
			state:     "CO",
			wantCount: 1,
			wantType:  "hospital",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := p.ParsePage(tt.text, "https://acme.example.com/projects", tt.state)
			if len(records) != tt.wantCount {
				t.Fatalf("Expected %d records, got %d", tt.wantCount, len(records))
			}
			for _, r := range records {
				if r.State != strings.ToUpper(tt.state) {
					t.Errorf("Expected state %q, got %q", tt.state, r.State)
				}
				if r.Quality != defaultProjectQuality {
					t.Errorf("Expected default quality, got %v", r.Quality)
				}
				if r.SourceURL != "https://acme.example.com/projects" {
					t.Errorf("Unexpected source URL: %q", r.SourceURL)
				}
				if tt.wantType != "" && r.Type != tt.wantType {
					t.Errorf("Expected type %q, got %q", tt.wantType, r.Type)
				}
			}
		})
	}
}

func TestParsePageCapsRecords(t *testing.T) {
	p := newTestParser(t)

	var b strings.Builder
	b.WriteString("Texas work: ")
	for i := 0; i < 30; i++ {
		b.WriteString("2023 2024 ")
	}

	records := p.ParsePage(b.String(), "https://acme.example.com", "TX")
	if len(records) != maxRecordsPerPage {
		t.Errorf("Expected records capped at %d, got %d", maxRecordsPerPage, len(records))
	}
}
