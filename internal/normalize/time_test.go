package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "1899-12-30T09:30:00.000Z", want: "09:30"},
		{in: "2:47 AM", want: "02:47"},
		{in: "2:47 PM", want: "14:47"},
		{in: "12:05 AM", want: "00:05"},
		{in: "12:05 pm", want: "12:05"},
		{in: "2:47:00 PM", want: "14:47"},
		{in: "11:15:30 am", want: "11:15"},
		{in: "17:00:00", want: "17:00"},
		{in: "8:00", want: "08:00"},
		{in: "08:00", want: "08:00"},
		{in: " 16:30 ", want: "16:30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Time(tt.in))
		})
	}
}

func TestTimePassThrough(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Time(""))
	require.Equal(t, "ne vozi", Time(" ne vozi "))
	require.Equal(t, "25:00", Time("25:00"))
	require.Equal(t, "13:00 PM", Time("13:00 PM"))
	require.Equal(t, "2:47:00:00 PM", Time("2:47:00:00 PM"))
}

func TestScheduleTime(t *testing.T) {
	t.Parallel()

	require.Equal(t, "08:00", ScheduleTime("08:00 h"))
	require.Equal(t, "16:30", ScheduleTime("16:30h"))
	require.Equal(t, "08:00", ScheduleTime("8.00 h"))
	require.Equal(t, "po dogovoru", ScheduleTime("po dogovoru"))
}
