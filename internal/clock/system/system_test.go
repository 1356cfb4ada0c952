package system

import (
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/stretchr/testify/require"

	"github.com/stplive/stp-live/internal/pipeline"
)

var (
	_ pipeline.Clock = (*Clock)(nil)
	_ gcache.Clock   = (*Clock)(nil)
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	require.Equal(t, time.UTC, got.Location())
	require.True(t, got.After(before) && got.Before(after), "got %v outside [%v, %v]", got, before, after)
}

func TestClockNowNonDecreasing(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	require.False(t, second.Before(first))
}
