package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Burst descriptor tables and the other read-only constants
 *		shared by every actor.
 *
 * Description:	Lengths and sync-sequence offsets come from the GMR-1
 *		burst formats this project targets; modulation tables are
 *		a leaf DSP concern (dsp.go) and are deliberately not
 *		modeled here.
 *
 *---------------------------------------------------------------*/

import "math"

// SymbolsPerSlot and SlotsPerFrame fix one GMR-1 TDMA frame at
// sps*39*24 samples.
const (
	SymbolsPerSlot = 39
	SlotsPerFrame  = 24
)

// FrameLen returns one TDMA frame's length in samples for the given
// oversampling ratio.
func FrameLen(sps int) int64 {
	return int64(sps) * SymbolsPerSlot * SlotsPerFrame
}

// Per-actor-kind alignment margins, in symbols (before sps scaling).
// BCCH can afford a wide margin; traffic channels are already tracked
// tightly by the time they are spawned.
const (
	BCCHMarginSymbols = 100
	TCH3MarginSymbols = 10
	TCH9MarginSymbols = 50
)

// BurstKind names a burst type for logging/tap tagging.
type BurstKind int

const (
	BurstBCCH BurstKind = iota
	BurstCCCH
	BurstRACH
	BurstTCH3
	BurstTCH9
	BurstFACCH3
	BurstFACCH9
	BurstSpeech3
	BurstDKAB
)

func (k BurstKind) String() string {
	switch k {
	case BurstBCCH:
		return "BCCH"
	case BurstCCCH:
		return "CCCH"
	case BurstRACH:
		return "RACH"
	case BurstTCH3:
		return "TCH3"
	case BurstTCH9:
		return "TCH9"
	case BurstFACCH3:
		return "FACCH3"
	case BurstFACCH9:
		return "FACCH9"
	case BurstSpeech3:
		return "SPEECH3"
	case BurstDKAB:
		return "DKAB"
	default:
		return "UNKNOWN"
	}
}

// BurstDescriptor is the read-only geometry of one burst kind: length
// in symbols, sync-sequence positions within the burst. The modulation
// table is left to the leaf demodulator (dsp.go).
type BurstDescriptor struct {
	Kind          BurstKind
	LengthSymbols int
	SyncPositions []int
}

var (
	DescBCCH    = BurstDescriptor{Kind: BurstBCCH, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescCCCH    = BurstDescriptor{Kind: BurstCCCH, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescRACH    = BurstDescriptor{Kind: BurstRACH, LengthSymbols: 39, SyncPositions: []int{8, 9, 10, 11, 12, 13, 14, 15}}
	DescTCH3    = BurstDescriptor{Kind: BurstTCH3, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescTCH9    = BurstDescriptor{Kind: BurstTCH9, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescFACCH3  = BurstDescriptor{Kind: BurstFACCH3, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescFACCH9  = BurstDescriptor{Kind: BurstFACCH9, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescSpeech3 = BurstDescriptor{Kind: BurstSpeech3, LengthSymbols: 39, SyncPositions: []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}}
	DescDKAB    = BurstDescriptor{Kind: BurstDKAB, LengthSymbols: 8, SyncPositions: []int{2, 3}}
)

// CRC-failure / weak-burst thresholds before an actor declares channel
// loss and self-terminates.
const (
	BCCHBadCRCThreshold   = 10
	FACCH9BadCRCThreshold = 10
	TCH3WeakDKABThreshold = 8
)

// SymbolRateHz is the GMR-1 air-interface symbol rate, used (with sps)
// to turn the FCCH acquisition window sizes from milliseconds into
// sample counts.
const SymbolRateHz = 23400

// radPerSymToHz converts a frequency error from the radians/symbol the
// leaf estimators report into Hz, for comparison against thresholds like
// FCCHMaxFreqDeltaHz.
func radPerSymToHz(radPerSym float64) float64 {
	return radPerSym * SymbolRateHz / (2 * math.Pi)
}

// FCCH acquisition constants.
const (
	FCCHStartDiscard   = 8000 // samples
	FCCHSingleWindowMS = 330
	FCCHMultiWindowMS  = 650
	FCCHSyms           = 39
	FCCHMultiCapacity  = 16
	FCCHMinSNR         = 2.0
	FCCHRelSNRFactor   = 6.0
	FCCHMaxFreqDeltaHz = 500.0
)

// msToSamples converts a window length in milliseconds to samples at
// the given oversampling ratio.
func msToSamples(ms, sps int) int {
	return (ms * SymbolRateHz * sps) / 1000
}

// DefaultRingCapacity sizes a channel's ring buffer to the largest
// contiguous window any downlink actor requests in a single invocation.
// The FCCH multi-candidate scan is by far the widest; it is padded by
// the BCCH alignment margin on both sides so a BCCH actor spawned from
// it can frame up without starving.
func DefaultRingCapacity(sps int) int {
	fcch := msToSamples(FCCHMultiWindowMS, sps) + 2*BCCHMarginSymbols*sps
	bcch := 2*BCCHMarginSymbols*sps + 2*int(FrameLen(sps))
	if bcch > fcch {
		return bcch
	}
	return fcch
}

// RACH detector defaults.
const (
	RACHTriggerRatio  = 1.5
	RACHFFTThreshold  = 8.5
	RACHFFTSize       = 512
	RACHFFTOverlap    = 2
	RACHFFTAvgHalfWin = 15
)
