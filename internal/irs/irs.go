// Package irs scrapes download links for the annual exempt-organization
// extracts, the state master-file list and the curated index list from
// their publishing pages.
package irs

import (
	"context"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/fetcher"
	"github.com/sells-group/giving-cli/internal/model"
)

const (
	// DefaultSOIURL lists the annual extracts by calendar year.
	DefaultSOIURL = "https://www.irs.gov/statistics/soi-tax-stats-annual-extract-of-tax-exempt-organization-financial-data"
	// DefaultBMFURL lists the per-state business master files.
	DefaultBMFURL = "https://www.irs.gov/charities-non-profits/exempt-organizations-business-master-file-extract-eo-bmf"
	// DefaultSiteURL is the index site that publishes the curated list.
	DefaultSiteURL = "https://wgi.communityplatform.us/"

	// CuratedListText is the anchor text of the curated list download.
	CuratedListText = "Download The List"
)

var (
	yearHeading = regexp.MustCompile(`(?i)^\s*Exempt Organization Returns Filed in Calendar Year`)
	digits      = regexp.MustCompile(`\d+`)
)

// Link is a named download.
type Link struct {
	Name string
	URL  string
}

// Form reports which extract form the link carries, if any.
func (l Link) Form() (model.ExtractForm, bool) {
	switch {
	case strings.Contains(l.Name, "990-EZ"):
		return model.Form990EZ, true
	case strings.Contains(l.Name, "990-PF"):
		return "", false
	case strings.Contains(l.Name, "990 Extract"), strings.Contains(l.Name, "990 extract"):
		return model.Form990, true
	}
	return "", false
}

// Pages are the publishing pages the scraper reads.
type Pages struct {
	SOI  string
	BMF  string
	Site string
}

// Scraper reads the publishing pages through a Fetcher.
type Scraper struct {
	fetch fetcher.Fetcher
	pages Pages
}

// NewScraper creates a Scraper. Empty page URLs take the defaults.
func NewScraper(f fetcher.Fetcher, pages Pages) *Scraper {
	if pages.SOI == "" {
		pages.SOI = DefaultSOIURL
	}
	if pages.BMF == "" {
		pages.BMF = DefaultBMFURL
	}
	if pages.Site == "" {
		pages.Site = DefaultSiteURL
	}
	return &Scraper{fetch: f, pages: pages}
}

// ExtractLinks returns the extract downloads published for every year.
func (s *Scraper) ExtractLinks(ctx context.Context) (map[int][]Link, error) {
	doc, base, err := s.document(ctx, s.pages.SOI)
	if err != nil {
		return nil, err
	}
	links := ParseExtractLinks(doc, base)
	if len(links) == 0 {
		return nil, failure.ShapeChanged(eris.Errorf("irs: no calendar-year sections on %s", s.pages.SOI))
	}
	return links, nil
}

// YearLinks returns the extract downloads for year. A year the page does
// not list is UnknownYear.
func (s *Scraper) YearLinks(ctx context.Context, year int) ([]Link, error) {
	all, err := s.ExtractLinks(ctx)
	if err != nil {
		return nil, err
	}
	links, ok := all[year]
	if !ok {
		years := make([]int, 0, len(all))
		for y := range all {
			years = append(years, y)
		}
		slices.Sort(years)
		return nil, failure.Newf(failure.UnknownYear, "irs: year %d is unavailable (published: %v)", year, years)
	}
	return links, nil
}

// StateFileLink returns the master-file download whose anchor text is
// exactly text (for example "Massachusetts").
func (s *Scraper) StateFileLink(ctx context.Context, text string) (Link, error) {
	return s.anchor(ctx, s.pages.BMF, text)
}

// CuratedListLink returns the curated index list download.
func (s *Scraper) CuratedListLink(ctx context.Context) (Link, error) {
	return s.anchor(ctx, s.pages.Site, CuratedListText)
}

func (s *Scraper) anchor(ctx context.Context, pageURL, text string) (Link, error) {
	doc, base, err := s.document(ctx, pageURL)
	if err != nil {
		return Link{}, err
	}
	link, ok := FindAnchor(doc, base, text)
	if !ok {
		return Link{}, failure.ShapeChanged(eris.Errorf("irs: no %q link on %s", text, pageURL))
	}
	return link, nil
}

func (s *Scraper) document(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "irs: parse page url %s", pageURL)
	}

	body, err := s.fetch.Download(ctx, pageURL)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "irs: fetch %s", pageURL)
	}
	defer body.Close() //nolint:errcheck

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, failure.ShapeChanged(eris.Wrapf(err, "irs: parse %s", pageURL))
	}
	return doc, base, nil
}

// ParseExtractLinks finds every calendar-year heading and collects the
// anchors that follow it up to the next heading. Each link is named
// "<anchor text> (<year>)".
func ParseExtractLinks(doc *goquery.Document, base *url.URL) map[int][]Link {
	out := make(map[int][]Link)
	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		heading := strings.TrimSpace(h2.Text())
		if !yearHeading.MatchString(heading) {
			return
		}
		year, err := strconv.Atoi(digits.FindString(heading))
		if err != nil {
			zap.L().Warn("irs: heading without year", zap.String("heading", heading))
			return
		}

		var links []Link
		h2.NextUntil("h2").Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			links = append(links, Link{
				Name: strings.TrimSpace(a.Text()) + " (" + strconv.Itoa(year) + ")",
				URL:  resolve(base, href),
			})
		})
		out[year] = links
	})
	return out
}

// FindAnchor returns the first anchor whose trimmed text equals text.
func FindAnchor(doc *goquery.Document, base *url.URL, text string) (Link, bool) {
	sel := doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.TrimSpace(a.Text()) == text
	}).First()
	if sel.Length() == 0 {
		return Link{}, false
	}
	href, _ := sel.Attr("href")
	return Link{Name: text, URL: resolve(base, href)}, true
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
