package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stplive/stp-live/internal/pipeline"
)

func testPolicy() Policy {
	return NewPolicy(
		[]string{"MTB", "enduro", "downhill", "dh", "xco"},
		[]string{"Hrvatska", "sljeme", "zagreb"},
		"hr",
		map[string]string{"cro": "HR", "hrvatska": "hr"},
		"dhi",
	)
}

func TestKeepGeneralSources(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	tests := []struct {
		title string
		want  bool
	}{
		{title: "DH Sljeme 2026", want: true},
		{title: "MTB maraton ZAGREB", want: true},
		{title: "Enduro Učka", want: false},
		{title: "Sljeme trail run", want: false},
		{title: "", want: false},
	}
	for _, tt := range tests {
		ev := pipeline.RaceEvent{Title: tt.title, Source: pipeline.SourcePrimaryA}
		require.Equal(t, tt.want, p.Keep(ev), tt.title)
	}
}

func TestKeepInternational(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	event := func(country, discipline string) pipeline.RaceEvent {
		return pipeline.RaceEvent{
			Title:      "World Cup",
			Source:     pipeline.SourceInternational,
			Country:    pipeline.StringPtr(country),
			Discipline: pipeline.StringPtr(discipline),
		}
	}

	require.True(t, p.Keep(event("CRO", "DHI")))
	require.True(t, p.Keep(event("HR", "downhill")))
	require.True(t, p.Keep(event("hrvatska", "DH")))
	require.False(t, p.Keep(event("CZE", "DHI")))
	require.False(t, p.Keep(event("HR", "XCO")))
	require.False(t, p.Keep(pipeline.RaceEvent{Title: "DH Sljeme", Source: pipeline.SourceInternational}))
}

func TestAdmitTagsEvents(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	general := pipeline.RaceEvent{Title: "Downhill kup Sljeme", Source: pipeline.SourcePrimaryB, URL: "https://x.test/1"}
	got, ok := p.Admit(general)
	require.True(t, ok)
	require.Equal(t, "HR", pipeline.Deref(got.Country))
	require.Equal(t, DisciplineDH, pipeline.Deref(got.Discipline))
	require.Nil(t, general.Country)

	intl := pipeline.RaceEvent{
		Title:      "UCI DHI World Cup",
		Source:     pipeline.SourceInternational,
		Country:    pipeline.StringPtr("CRO"),
		Discipline: pipeline.StringPtr("DHI"),
	}
	got, ok = p.Admit(intl)
	require.True(t, ok)
	require.Equal(t, "HR", pipeline.Deref(got.Country))
	require.Equal(t, DisciplineDH, pipeline.Deref(got.Discipline))
	require.Equal(t, "CRO", pipeline.Deref(intl.Country))

	_, ok = p.Admit(pipeline.RaceEvent{Title: "Cestovna utrka Split", Source: pipeline.SourcePrimaryA})
	require.False(t, ok)
}

func TestAdmitUnknownDisciplineStaysNil(t *testing.T) {
	t.Parallel()

	p := NewPolicy([]string{"mtb"}, []string{"zagreb"}, "HR", nil, "DH")
	got, ok := p.Admit(pipeline.RaceEvent{Title: "MTB izlet Zagreb", Source: pipeline.SourcePrimaryA})
	require.True(t, ok)
	require.Nil(t, got.Discipline)
}

func TestGuessDiscipline(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"DH Sljeme":                  DisciplineDH,
		"Spust Učka 2026":            DisciplineDH,
		"Enduro / XCO festival":      DisciplineEnduro,
		"Cross-country kup":          DisciplineXC,
		"XCM maraton Papuk":          DisciplineXC,
		"HR DH-kup Sljeme":           DisciplineDH,
		"Sljeme Downhill-Cup 2026":   DisciplineDH,
		"Spust/DH Sljeme":            DisciplineDH,
		"Cross country Medvednica":   DisciplineXC,
		"Enduro-Marathon Učka":       DisciplineEnduro,
		"Dhaka city ride":            "",
		"Edrovski trail":             "",
		"Obiteljska vožnja biciklom": "",
	}
	for title, want := range tests {
		require.Equal(t, want, GuessDiscipline(title), title)
	}
}

func TestCanonicalDiscipline(t *testing.T) {
	t.Parallel()

	require.Equal(t, DisciplineDH, CanonicalDiscipline(" dhi "))
	require.Equal(t, DisciplineEnduro, CanonicalDiscipline("EDR"))
	require.Equal(t, DisciplineXC, CanonicalDiscipline("xco"))
	require.Equal(t, "4X", CanonicalDiscipline("4x"))
	require.Equal(t, "", CanonicalDiscipline(""))
}
