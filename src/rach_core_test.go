package gmr1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_rach_single_peak_emits_one_burst(t *testing.T) {
	const n = 1100
	raw := make([]Sample, n)
	pwr := make([]float64, n)
	corr := make([]float64, n)
	for i := range raw {
		pwr[i] = 1.0
	}
	raw[1000] = Sample{I: 1, Q: 0}
	corr[1000] = 10.0

	d := NewRACHDetector(-5, 20, 50)
	results := d.Work(raw, pwr, corr, 0)

	require.Len(t, results, 1)
	assert.Equal(t, 20, len(results[0].Burst))
	assert.Equal(t, int64(1000), results[0].PeakPos)
	assert.Equal(t, int64(1050), results[0].EmitPos)
	assert.Equal(t, float32(1), results[0].Burst[5].I)
	assert.Equal(t, RACHTag{Key: "len", Value: 20}, results[0].Tag)
}

func Test_rach_drifting_peak_tracks_the_max(t *testing.T) {
	const n = 300
	raw := make([]Sample, n)
	pwr := make([]float64, n)
	corr := make([]float64, n)
	for i := range raw {
		pwr[i] = 1.0
	}
	corr[100] = 2.0
	corr[120] = 5.0

	d := NewRACHDetector(0, 10, 30)
	results := d.Work(raw, pwr, corr, 0)

	require.Len(t, results, 1)
	assert.Equal(t, int64(120), results[0].PeakPos)
	assert.Equal(t, int64(150), results[0].EmitPos)
}

func Test_rach_scan_window_one_emits_immediately(t *testing.T) {
	raw := make([]Sample, 10)
	pwr := make([]float64, 10)
	corr := make([]float64, 10)
	for i := range raw {
		pwr[i] = 1.0
	}
	corr[5] = 5.0

	d := NewRACHDetector(0, 4, 1)
	results := d.Work(raw, pwr, corr, 0)

	require.Len(t, results, 1)
	assert.Equal(t, int64(5), results[0].PeakPos)
	assert.Equal(t, int64(6), results[0].EmitPos)
}

func Test_rach_no_trigger_emits_nothing(t *testing.T) {
	raw := make([]Sample, 50)
	pwr := make([]float64, 50)
	corr := make([]float64, 50)
	for i := range raw {
		pwr[i] = 1.0
		corr[i] = 1.0 // never exceeds 1.5x reference power
	}

	d := NewRACHDetector(0, 4, 10)
	results := d.Work(raw, pwr, corr, 0)

	assert.Empty(t, results)
}

func Test_rach_positive_and_negative_offset_both_place_window(t *testing.T) {
	raw := make([]Sample, 200)
	pwr := make([]float64, 200)
	corr := make([]float64, 200)
	for i := range raw {
		pwr[i] = 1.0
		raw[i] = Sample{I: float32(i)}
	}
	corr[100] = 5.0

	negative := NewRACHDetector(-10, 5, 5)
	res := negative.Work(raw, pwr, corr, 0)
	require.Len(t, res, 1)
	assert.Equal(t, float32(90), res[0].Burst[0].I)

	positive := NewRACHDetector(10, 5, 5)
	res = positive.Work(raw, pwr, corr, 0)
	require.Len(t, res, 1)
	assert.Equal(t, float32(110), res[0].Burst[0].I)
}

func Test_rach_required_history(t *testing.T) {
	d := NewRACHDetector(-5, 20, 50)
	assert.Equal(t, 1+20+0, d.RequiredHistory())

	d2 := NewRACHDetector(5, 20, 50)
	assert.Equal(t, 1+20+5, d2.RequiredHistory())
}

// Emission cadence invariant: every emission happens exactly scan_window
// samples after its peak (the deadline only ever slides forward to a new
// peak), for arbitrary correlation traces split across arbitrary Work
// slices.
func Test_rapid_rach_emission_cadence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 400).Draw(t, "n")
		scanWindow := rapid.IntRange(1, 40).Draw(t, "scanWindow")
		split := rapid.IntRange(0, n).Draw(t, "split")

		raw := make([]Sample, n)
		pwr := make([]float64, n)
		corr := make([]float64, n)
		for i := range raw {
			pwr[i] = 1.0
			corr[i] = rapid.Float64Range(0, 4).Draw(t, "corr")
		}

		d := NewRACHDetector(0, 8, scanWindow)
		results := d.Work(raw[:split], pwr[:split], corr[:split], 0)
		results = append(results, d.Work(raw[split:], pwr[split:], corr[split:], int64(split))...)

		for _, res := range results {
			if res.EmitPos-res.PeakPos != int64(scanWindow) {
				t.Fatalf("emission at %d, peak at %d, want gap %d", res.EmitPos, res.PeakPos, scanWindow)
			}
			if len(res.Burst) != 8 {
				t.Fatalf("burst length %d, want 8", len(res.Burst))
			}
		}
	})
}

func Test_rach_set_scan_window_rejects_nonpositive(t *testing.T) {
	d := NewRACHDetector(0, 10, 10)
	assert.Error(t, d.SetRACHScanWindow(0))
	assert.NoError(t, d.SetRACHScanWindow(5))
}
