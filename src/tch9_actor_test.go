package gmr1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_tch9_facch9_bad_crc_teardown(t *testing.T) {
	ctx, _ := actorTestContext(1)
	a := NewTCH9Actor().WithAlignment(0, 0, 2)
	require.NoError(t, a.Init(ctx, 0, 0))
	a.demod = scriptedDemod{result: DemodResult{SoftBits: make([]int8, 32), Energy: 1}}

	fails := 0
	a.decoder = &scriptedDecoder{
		onFACCH9: func() ([]byte, bool) { fails++; return nil, false },
	}

	terminal, _ := driveUntilTerminal(t, a, make([]Sample, 4096), 60)

	assert.Equal(t, TerminateError, terminal)
	assert.Equal(t, FACCH9BadCRCThreshold+1, fails)
}

func Test_tch9_dispatches_on_sync_id(t *testing.T) {
	ctx, _ := actorTestContext(1)
	a := NewTCH9Actor().WithAlignment(0, 0, 2)
	require.NoError(t, a.Init(ctx, 0, 0))
	a.demod = scriptedDemod{result: DemodResult{SoftBits: make([]int8, 32), Energy: 1}}

	facchFrames, tchFrames := 0, 0
	a.decoder = &scriptedDecoder{
		onFACCH9: func() ([]byte, bool) { facchFrames++; return []byte{1}, true },
		onTCH9:   func() []byte { tchFrames++; return []byte{2} },
	}

	window := make([]Sample, 4096)
	for i := 0; i < 8; i++ {
		require.Greater(t, a.Consume(window), 0)
	}

	assert.Equal(t, 4, facchFrames)
	assert.Equal(t, 4, tchFrames)
}

func Test_tch9_good_facch9_resets_bad_crc_counter(t *testing.T) {
	ctx, _ := actorTestContext(1)
	a := NewTCH9Actor().WithAlignment(0, 0, 2)
	require.NoError(t, a.Init(ctx, 0, 0))
	a.demod = scriptedDemod{result: DemodResult{SoftBits: make([]int8, 32), Energy: 1}}

	calls := 0
	a.decoder = &scriptedDecoder{
		onFACCH9: func() ([]byte, bool) {
			calls++
			return []byte{1}, calls%2 == 0 // alternate bad and good
		},
	}

	window := make([]Sample, 4096)
	for i := 0; i < 50; i++ {
		require.Greater(t, a.Consume(window), 0, "alternating CRCs must never tear the channel down")
	}
	assert.LessOrEqual(t, a.badCRC, 1)
}
