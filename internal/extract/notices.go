package extract

import (
	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

// NoticeOptions tunes the notices strategy.
type NoticeOptions struct {
	// MinTitle is the length a link text must exceed.
	MinTitle int
	// Denylist holds navigation labels that are never notices.
	Denylist []string
}

// NoticeStrategy extracts same-site notice links. The structural pass reads links
// inside <article> elements; the textual pass falls back to every link on the page.
func NoticeStrategy(opts NoticeOptions) Strategy[pipeline.NoticeItem] {
	deny := make(map[string]struct{}, len(opts.Denylist))
	for _, label := range opts.Denylist {
		deny[normalize.Fold(label)] = struct{}{}
	}
	filter := func(doc pipeline.RawDocument, links []Link) []pipeline.NoticeItem {
		return filterNotices(doc.SourceURL, links, opts.MinTitle, deny)
	}
	return Strategy[pipeline.NoticeItem]{
		Name: "notices",
		Passes: []Pass[pipeline.NoticeItem]{
			{Tier: TierStructural, Run: func(doc pipeline.RawDocument) ([]pipeline.NoticeItem, error) {
				parsed, err := parseHTML(doc.Body)
				if err != nil {
					return nil, err
				}
				return filter(doc, anchors(parsed.Find("article a[href]"))), nil
			}},
			{Tier: TierTextual, Run: func(doc pipeline.RawDocument) ([]pipeline.NoticeItem, error) {
				return filter(doc, ScanLinks(doc.Body)), nil
			}},
		},
	}
}

func filterNotices(pageURL string, links []Link, minTitle int, deny map[string]struct{}) []pipeline.NoticeItem {
	base := parseBase(pageURL)
	var items []pipeline.NoticeItem
	for _, link := range links {
		title := normalize.Collapse(link.Text)
		if !longerThan(title, minTitle) {
			continue
		}
		if _, denied := deny[normalize.Fold(title)]; denied {
			continue
		}
		abs, ok := resolve(base, link.Href)
		if !ok || !sameHost(base, abs) || samePage(abs, pageURL) {
			continue
		}
		items = append(items, pipeline.NoticeItem{Title: title, URL: abs})
	}
	return items
}
