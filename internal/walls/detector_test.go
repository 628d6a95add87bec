package walls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

func exposure(strike, call, put float64) gamma.StrikeExposure {
	return gamma.StrikeExposure{
		Strike:       strike,
		CallExposure: call,
		PutExposure:  put,
		NetExposure:  call + put,
	}
}

func TestNewDetector(t *testing.T) {
	_, err := NewDetector(0.05, 5)
	require.NoError(t, err)

	_, err = NewDetector(1.5, 5)
	assert.ErrorIs(t, err, ErrInvalidDetector)
	_, err = NewDetector(0.05, 0)
	assert.ErrorIs(t, err, ErrInvalidDetector)
}

func TestFindAll_Empty(t *testing.T) {
	w := DefaultDetector().FindAll(nil, 100)
	assert.NotNil(t, w.CallWalls)
	assert.NotNil(t, w.PutWalls)
	assert.Empty(t, w.CallWalls)
	assert.Empty(t, w.PutWalls)
}

func TestCallWalls_OnlyCalls(t *testing.T) {
	exposures := []gamma.StrikeExposure{
		exposure(95, -200, 0),
		exposure(100, -1000, 0),
		exposure(105, -600, 0),
		exposure(110, -10, 0),
	}

	w := DefaultDetector().FindAll(exposures, 101)
	assert.Empty(t, w.PutWalls)
	require.Len(t, w.CallWalls, 3)

	assert.Equal(t, 100.0, w.CallWalls[0].Strike)
	assert.Equal(t, 105.0, w.CallWalls[1].Strike)
	assert.Equal(t, 95.0, w.CallWalls[2].Strike)
	for i, l := range w.CallWalls {
		assert.Equal(t, i+1, l.SignificanceRank)
		assert.Equal(t, CallWall, l.Type)
	}
	assert.InDelta(t, 1.0, w.CallWalls[0].DistanceFromSpot, 1e-9)
}

func TestPutWalls_RespectsMaxWalls(t *testing.T) {
	var exposures []gamma.StrikeExposure
	for i := 0; i < 10; i++ {
		exposures = append(exposures, exposure(float64(90+i), 0, 100))
	}

	d, err := NewDetector(0.05, 3)
	require.NoError(t, err)

	puts := d.PutWalls(exposures, 95)
	require.Len(t, puts, 3)
	for i, l := range puts {
		assert.Equal(t, i+1, l.SignificanceRank)
		assert.Equal(t, PutWall, l.Type)
	}
	// equal magnitudes keep strike order
	assert.Equal(t, 90.0, puts[0].Strike)
}

func TestWalls_IgnoreWrongSign(t *testing.T) {
	exposures := []gamma.StrikeExposure{exposure(100, 50, -50)}

	w := DefaultDetector().FindAll(exposures, 100)
	assert.Empty(t, w.CallWalls)
	assert.Empty(t, w.PutWalls)
}

func TestWithDistancesAndNearby(t *testing.T) {
	levels := []Level{
		{Strike: 90, ExposureValue: 10, Type: PutWall, SignificanceRank: 1},
		{Strike: 130, ExposureValue: 5, Type: PutWall, SignificanceRank: 2},
	}

	retagged := WithDistances(levels, 100)
	assert.Equal(t, 0.0, levels[0].DistanceFromSpot)
	assert.Equal(t, 10.0, retagged[0].DistanceFromSpot)
	assert.Equal(t, 30.0, retagged[1].DistanceFromSpot)

	near := Nearby(retagged, 100, DefaultNearbyPct)
	require.Len(t, near, 1)
	assert.Equal(t, 90.0, near[0].Strike)
}

func TestRankBySignificance(t *testing.T) {
	levels := []Level{
		{Strike: 100, ExposureValue: -10, Type: CallWall, SignificanceRank: 1},
		{Strike: 105, ExposureValue: -50, Type: CallWall, SignificanceRank: 2},
		{Strike: 95, ExposureValue: 30, Type: PutWall, SignificanceRank: 1},
	}

	ranked := RankBySignificance(levels, -200)
	require.Len(t, ranked, 3)
	assert.Equal(t, []float64{105, 95, 100}, []float64{ranked[0].Strike, ranked[1].Strike, ranked[2].Strike})
	for i, l := range ranked {
		assert.Equal(t, i+1, l.SignificanceRank)
	}
	assert.Equal(t, 1, levels[0].SignificanceRank)

	unchanged := RankBySignificance(levels, 0)
	assert.Equal(t, levels, unchanged)
	assert.Empty(t, RankBySignificance(nil, 10))
}

func TestNewLevel(t *testing.T) {
	_, err := NewLevel(100, -5, CallWall, 2, 1)
	require.NoError(t, err)

	_, err = NewLevel(100, -5, CallWall, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = NewLevel(100, -5, "floor", 2, 1)
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = NewLevel(100, -5, CallWall, -1, 1)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestSummarize(t *testing.T) {
	w := Walls{
		CallWalls: []Level{
			{Strike: 110, ExposureValue: -500, Type: CallWall, SignificanceRank: 1},
			{Strike: 104, ExposureValue: -200, Type: CallWall, SignificanceRank: 2},
		},
		PutWalls: []Level{
			{Strike: 90, ExposureValue: 400, Type: PutWall, SignificanceRank: 1},
		},
	}

	s := Summarize(w, 100)
	assert.Equal(t, 3, s.TotalWalls)
	assert.Equal(t, 2, s.CallWallCount)
	assert.Equal(t, 1, s.PutWallCount)

	require.NotNil(t, s.PrimaryCallWall)
	assert.Equal(t, 110.0, s.PrimaryCallWall.Strike)
	assert.InDelta(t, 10.0, s.PrimaryCallWall.DistancePct, 1e-9)

	require.NotNil(t, s.NearestWall)
	assert.Equal(t, 104.0, s.NearestWall.Strike)
	assert.Equal(t, CallWall, s.NearestWall.Type)

	assert.InDelta(t, 7.0, s.AvgCallDistance, 1e-9)
	assert.InDelta(t, 10.0, s.AvgPutDistance, 1e-9)

	empty := Summarize(Walls{}, 100)
	assert.Nil(t, empty.NearestWall)
	assert.Equal(t, 0, empty.TotalWalls)
}
