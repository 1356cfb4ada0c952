package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

const (
	eventContainer = "article, tr, li, .event"
	venueSelector  = ".location, .venue, .tribe-events-venue-details"
)

// LinkRaceOptions configures a general, link-driven race calendar.
type LinkRaceOptions struct {
	Source pipeline.RaceSource
	// LinkFragment is the path fragment event links carry (e.g. "/kalendar/").
	LinkFragment string
	MinLinkText  int
}

// LinkRaceStrategy extracts race drafts from a calendar page made of event links.
func LinkRaceStrategy(opts LinkRaceOptions) Strategy[pipeline.RaceDraft] {
	return Strategy[pipeline.RaceDraft]{
		Name: "races-links",
		Passes: []Pass[pipeline.RaceDraft]{
			{Tier: TierStructural, Run: func(doc pipeline.RawDocument) ([]pipeline.RaceDraft, error) {
				return raceLinksStructural(doc, opts)
			}},
			{Tier: TierTextual, Run: func(doc pipeline.RawDocument) ([]pipeline.RaceDraft, error) {
				return raceLinksText(doc, opts), nil
			}},
		},
	}
}

func raceLinksStructural(doc pipeline.RawDocument, opts LinkRaceOptions) ([]pipeline.RaceDraft, error) {
	if opts.LinkFragment == "" {
		return nil, nil
	}
	parsed, err := parseHTML(doc.Body)
	if err != nil {
		return nil, err
	}
	base := parseBase(doc.SourceURL)

	var drafts []pipeline.RaceDraft
	parsed.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, opts.LinkFragment) {
			return
		}
		title := normalize.Collapse(a.Text())
		if !longerThan(title, opts.MinLinkText) {
			return
		}
		abs, ok := resolve(base, href)
		if !ok || samePage(abs, doc.SourceURL) {
			return
		}
		container := a.Closest(eventContainer)
		if container.Length() == 0 {
			container = a.Parent()
		}
		drafts = append(drafts, pipeline.RaceDraft{
			Title:    title,
			RawDate:  containerDate(container, title),
			Location: normalize.Collapse(container.Find(venueSelector).First().Text()),
			URL:      abs,
			Source:   opts.Source,
		})
	})
	return drafts, nil
}

func containerDate(container *goquery.Selection, title string) string {
	if dt, ok := container.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	if d := normalize.DateInText(normalize.Collapse(container.Text())); d != "" {
		return d
	}
	return normalize.DateInText(title)
}

func raceLinksText(doc pipeline.RawDocument, opts LinkRaceOptions) []pipeline.RaceDraft {
	base := parseBase(doc.SourceURL)
	var drafts []pipeline.RaceDraft
	for _, link := range ScanLinks(doc.Body) {
		if !longerThan(link.Text, opts.MinLinkText) {
			continue
		}
		abs, ok := resolve(base, link.Href)
		if !ok {
			continue
		}
		drafts = append(drafts, pipeline.RaceDraft{
			Title:   link.Text,
			RawDate: normalize.DateInText(link.Text),
			URL:     abs,
			Source:  opts.Source,
		})
	}
	return drafts
}
