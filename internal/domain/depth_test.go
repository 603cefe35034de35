package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDepth(t *testing.T) {
	t.Run("positive depth unchanged by clamp", func(t *testing.T) {
		d := ComputeDepth(fp(176.2), fp(175.5))
		require.False(t, d.Missing())
		assert.InDelta(t, 0.7, *d.Raw, 1e-9)
		assert.InDelta(t, 0.7, *d.Clamped, 1e-9)
	})

	t.Run("negative depth clamps to zero, raw preserved", func(t *testing.T) {
		d := ComputeDepth(fp(175.2), fp(175.5))
		require.False(t, d.Missing())
		assert.InDelta(t, -0.3, *d.Raw, 1e-9)
		assert.Equal(t, 0.0, *d.Clamped)
	})

	t.Run("missing elevation propagates", func(t *testing.T) {
		d := ComputeDepth(fp(176.2), nil)
		assert.True(t, d.Missing())
		assert.Nil(t, d.Raw)
		assert.Nil(t, d.Clamped)
	})

	t.Run("missing level propagates", func(t *testing.T) {
		d := ComputeDepth(nil, fp(175.5))
		assert.True(t, d.Missing())
	})

	t.Run("sentinel elevation never reaches arithmetic", func(t *testing.T) {
		// -9999 must become nil at ingestion; depth is missing, never -10175.2.
		d := ComputeDepth(fp(176.2), DecodeValue(Sentinel))
		assert.True(t, d.Missing())
	})
}

func TestDecodeValue(t *testing.T) {
	assert.Nil(t, DecodeValue(Sentinel))

	v := DecodeValue(175.5)
	require.NotNil(t, v)
	assert.Equal(t, 175.5, *v)

	// Near-sentinel values are real measurements; only exact equality flags.
	assert.NotNil(t, DecodeValue(-9998.9))
	assert.NotNil(t, DecodeValue(0))
}

func TestObservation_ElevationValue(t *testing.T) {
	t.Run("primary preferred", func(t *testing.T) {
		o := Observation{Elevation: fp(175.5), DEMElevation: fp(175.0)}
		require.NotNil(t, o.ElevationValue())
		assert.Equal(t, 175.5, *o.ElevationValue())
	})

	t.Run("falls back to DEM", func(t *testing.T) {
		o := Observation{DEMElevation: fp(175.0)}
		require.NotNil(t, o.ElevationValue())
		assert.Equal(t, 175.0, *o.ElevationValue())
	})

	t.Run("both missing", func(t *testing.T) {
		assert.Nil(t, Observation{}.ElevationValue())
	})
}

func TestCheckUnits(t *testing.T) {
	assert.NoError(t, CheckUnits("m", "m"))
	assert.NoError(t, CheckUnits("M", " m "))

	err := CheckUnits("m", "ft")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnitMismatch)

	assert.ErrorIs(t, CheckUnits("", "m"), ErrUnitMismatch)
}

func TestComputeDepths_AllStatistics(t *testing.T) {
	row := JoinedRow{
		Obs:         Observation{ID: "obs-1", Elevation: fp(175.5)},
		Daily:       fp(176.2),
		MonthlyHigh: fp(176.5),
		MonthlyMean: fp(176.0),
		MonthlyLow:  fp(175.2),
	}

	set := ComputeDepths(row)

	assert.InDelta(t, 0.7, *set.Daily.Raw, 1e-9)
	assert.InDelta(t, 1.0, *set.MonthlyHigh.Raw, 1e-9)
	assert.InDelta(t, 0.5, *set.MonthlyMean.Raw, 1e-9)
	assert.InDelta(t, -0.3, *set.MonthlyLow.Raw, 1e-9)
	assert.Equal(t, 0.0, *set.MonthlyLow.Clamped)
	assert.False(t, set.AnyMissing())
}

func TestFuse_StampsClockTime(t *testing.T) {
	frozen := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	rows := []JoinedRow{
		{Obs: Observation{ID: "obs-1", Elevation: fp(175.5)}, Daily: fp(176.2)},
		{Obs: Observation{ID: "obs-2"}, Daily: fp(176.2)}, // no elevation at all
	}

	fused := Fuse(rows)

	require.Len(t, fused, 2)
	assert.Equal(t, frozen, fused[0].ProcessedAt)
	assert.False(t, fused[0].Depths.Daily.Missing())
	assert.True(t, fused[1].Depths.Daily.Missing())
	assert.True(t, fused[1].Depths.AnyMissing())
}
