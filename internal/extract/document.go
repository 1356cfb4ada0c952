package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
