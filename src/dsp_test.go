package gmr1

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pureTone(n, sps int, cyclesPerSymbol float64) []Sample {
	out := make([]Sample, n)
	for i := range out {
		phase := 2 * math.Pi * cyclesPerSymbol * float64(i) / float64(sps)
		out[i] = Sample{I: float32(math.Cos(phase)), Q: float32(math.Sin(phase))}
	}
	return out
}

func Test_fcch_rough_finds_the_burst_onset(t *testing.T) {
	sps := 4
	quiet := make([]Sample, 40)
	burst := pureTone(4*40, sps, 0.1)
	window := append(append([]Sample{}, quiet...), burst...)

	toa := FCCHRough(window, sps, 0)
	assert.GreaterOrEqual(t, toa, float64(len(quiet)-sps))
}

func Test_fcch_fine_reports_near_zero_error_for_a_steady_tone(t *testing.T) {
	sps := 4
	window := pureTone(4*39, sps, 0)

	_, freqErr := FCCHFine(window, sps, 0)
	assert.InDelta(t, 0, freqErr, 1e-6)
}

func Test_fcch_rough_multi_orders_by_strength(t *testing.T) {
	sps := 2
	window := make([]Sample, 0)
	for i := 0; i < 8; i++ {
		amp := float32(i + 1)
		for j := 0; j < sps; j++ {
			window = append(window, Sample{I: amp, Q: 0})
		}
	}

	candidates := FCCHRoughMulti(window, sps, 0, 16)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Strength, candidates[i].Strength)
	}
	assert.Equal(t, float64(7*sps), candidates[0].TOA)
}

func Test_pi4cqpsk_detect_is_deterministic(t *testing.T) {
	sps := 4
	window := pureTone(4*39, sps, 0.25)
	k1 := Pi4CQPSKDetect(window, sps)
	k2 := Pi4CQPSKDetect(window, sps)
	assert.Equal(t, k1, k2)
}

func Test_correlation_demod_produces_two_bits_per_symbol(t *testing.T) {
	sps := 4
	window := pureTone(sps*40, sps, 0.25)
	result := CorrelationDemod{}.Demod(window, DescFACCH3, sps)
	assert.LessOrEqual(t, len(result.SoftBits), 2*DescFACCH3.LengthSymbols)
	assert.Greater(t, result.Energy, 0.0)
}

func Test_energy_sums_squared_magnitude(t *testing.T) {
	w := []Sample{{I: 3, Q: 4}, {I: 0, Q: 0}}
	assert.Equal(t, 25.0, Energy(w))
}
