package extract

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

const defaultVideoTitle = "Video"

// VideoStrategy parses a channel Atom feed into videos.
func VideoStrategy() Strategy[pipeline.Video] {
	return Strategy[pipeline.Video]{
		Name: "videos",
		Passes: []Pass[pipeline.Video]{
			{Tier: TierStructural, Run: feedVideos},
		},
	}
}

func feedVideos(doc pipeline.RawDocument) ([]pipeline.Video, error) {
	feed, err := gofeed.NewParser().ParseString(doc.Body)
	if err != nil {
		return nil, &pipeline.ExtractionError{
			Code: pipeline.CodeFeedInvalid,
			Hint: "channel feed could not be parsed",
			Err:  err,
		}
	}

	videos := make([]pipeline.Video, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		title := normalize.Collapse(item.Title)
		if title == "" {
			title = defaultVideoTitle
		}
		videos = append(videos, pipeline.Video{
			Title:     title,
			URL:       strings.TrimSpace(item.Link),
			Thumbnail: pipeline.StringPtr(thumbnail(item)),
			Published: pipeline.StringPtr(strings.TrimSpace(item.Published)),
		})
	}
	return videos, nil
}

// thumbnail reads media:group/media:thumbnail, then the item image.
func thumbnail(item *gofeed.Item) string {
	for _, group := range item.Extensions["media"]["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := strings.TrimSpace(thumb.Attrs["url"]); u != "" {
				return u
			}
		}
	}
	for _, thumb := range item.Extensions["media"]["thumbnail"] {
		if u := strings.TrimSpace(thumb.Attrs["url"]); u != "" {
			return u
		}
	}
	if item.Image != nil {
		return strings.TrimSpace(item.Image.URL)
	}
	return ""
}
