package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

const missingReading = "-"

// WeatherStrategy reads the current-conditions row of one station from the DHMZ table.
func WeatherStrategy(station string) Strategy[pipeline.StationReading] {
	return Strategy[pipeline.StationReading]{
		Name: "weather",
		Passes: []Pass[pipeline.StationReading]{
			{Tier: TierStructural, Run: func(doc pipeline.RawDocument) ([]pipeline.StationReading, error) {
				return stationRow(doc, station)
			}},
		},
	}
}

func stationRow(doc pipeline.RawDocument, station string) ([]pipeline.StationReading, error) {
	parsed, err := parseHTML(doc.Body)
	if err != nil {
		return nil, err
	}
	want := normalize.Fold(station)

	var found *pipeline.StationReading
	parsed.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 5 {
			return
		}
		name := normalize.Collapse(cells.Eq(0).Text())
		if want == "" || !strings.Contains(normalize.Fold(name), want) {
			return
		}
		// The last matching row wins.
		found = &pipeline.StationReading{
			Station:   name,
			WindDir:   cellOr(cells.Eq(1)),
			WindMs:    cellOr(cells.Eq(2)),
			TempC:     cellOr(cells.Eq(3)),
			Condition: cellOr(cells.Eq(4)),
		}
	})
	if found == nil {
		return nil, pipeline.NewExtractionError(pipeline.CodeStationNotFound,
			fmt.Sprintf("Postaja %s nije pronađena u tablici DHMZ-a.", station))
	}
	return []pipeline.StationReading{*found}, nil
}

func cellOr(cell *goquery.Selection) string {
	if text := normalize.Collapse(cell.Text()); text != "" {
		return text
	}
	return missingReading
}
