package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stplive/stp-live/internal/aggregate"
	"github.com/stplive/stp-live/internal/config"
	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/server"
)

var features = []string{"hours", "notices", "races", "weather", "videos"}

func newScrapeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "scrape <hours|notices|races|weather|videos>",
		Short:     "Run one aggregation and print the result",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: features,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer func() { _ = app.Close(context.Background()) }()

			return scrape(cmd.Context(), app.Aggregator(), args[0], asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON payload instead of a table")
	return cmd
}

// scrape runs feature on agg and renders it to out.
func scrape(ctx context.Context, agg *aggregate.Service, feature string, asJSON bool, out io.Writer) error {
	switch feature {
	case "hours":
		return render(out, agg.CablecarHours(ctx), asJSON, hoursTable)
	case "notices":
		return render(out, agg.CablecarNotices(ctx), asJSON, noticesTable)
	case "races":
		return render(out, agg.Races(ctx), asJSON, racesTable)
	case "weather":
		return render(out, agg.WeatherNow(ctx), asJSON, weatherTable)
	case "videos":
		return render(out, agg.LatestVideos(ctx), asJSON, videosTable)
	default:
		return fmt.Errorf("unknown feature %q", feature)
	}
}

func render[T any](out io.Writer, res pipeline.Result[T], asJSON bool, tabulate func(table.Writer, T)) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		var payload any = res.Value
		if !res.OK() {
			payload = map[string]any{"ok": false, "error": res.Failure.Code, "hint": res.Failure.Hint, "details": res.Failure.Details}
		}
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	if !res.OK() {
		t.AppendHeader(table.Row{"Error", "Hint", "Details"})
		t.AppendRow(table.Row{res.Failure.Code, res.Failure.Hint, res.Failure.Details})
	} else {
		tabulate(t, res.Value)
	}
	t.Render()
	return nil
}

func hoursTable(t table.Writer, p aggregate.HoursPayload) {
	t.SetTitle("Radno vrijeme žičare (%s)", p.Tier)
	t.AppendHeader(table.Row{"Station", "First", "Last weekday", "Last weekend"})
	for _, r := range p.Rows {
		t.AppendRow(table.Row{r.Station, r.FirstDeparture, r.LastDepartureWeekday, r.LastDepartureWeekend})
	}
}

func noticesTable(t table.Writer, p aggregate.NoticesPayload) {
	t.AppendHeader(table.Row{"#", "Title", "URL"})
	for i, n := range p.Items {
		t.AppendRow(table.Row{i + 1, n.Title, n.URL})
	}
}

func racesTable(t table.Writer, p aggregate.RacesPayload) {
	t.AppendHeader(table.Row{"Date", "Title", "Discipline", "Country", "Source", "URL"})
	for _, ev := range p.Items {
		t.AppendRow(table.Row{
			orDash(ev.ISODate), ev.Title, orDash(ev.Discipline), orDash(ev.Country), ev.Source, ev.URL,
		})
	}
	t.AppendSeparator()
	for _, s := range p.Sources {
		t.AppendRow(table.Row{"", s.Source, s.Tier, fmt.Sprintf("%d", s.Count), s.Error, s.URL})
	}
}

func weatherTable(t table.Writer, p aggregate.WeatherPayload) {
	t.AppendHeader(table.Row{"Station", "Wind dir", "Wind m/s", "Temp °C", "Condition"})
	t.AppendRow(table.Row{p.Station, p.WindDir, p.WindMs, p.TempC, p.Condition})
}

func videosTable(t table.Writer, p aggregate.VideosPayload) {
	t.AppendHeader(table.Row{"Published", "Title", "URL"})
	for _, v := range p.Items {
		t.AppendRow(table.Row{orDash(v.Published), v.Title, v.URL})
	}
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
