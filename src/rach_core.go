package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Random-access burst detector: a standalone three-input
 *		streaming block, independent of the actor/bus machinery
 *		above. It has no channel cursor of its own and is driven
 *		directly by a caller holding raw signal, reference-power,
 *		and correlation-power streams in lockstep.
 *
 * Description:	Idle/Locked state machine per sample: a correlation peak
 *		1.5x over reference power opens a Locked window of
 *		scan_window samples, sliding the deadline forward on every
 *		improved peak; at expiry the burst around the best peak
 *		seen is emitted with a length tag. If the work slice ends
 *		before expiry, the best candidate's source window is saved
 *		so the burst survives into the next Work call.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// RACHTag is the item tag attached to each emitted burst.
type RACHTag struct {
	Key   string
	Value int
}

// RACHDetector implements the random-access burst detector block.
type RACHDetector struct {
	burstOffset int
	burstLength int
	scanWindow  int
	tagName     string

	cnt     int
	maxCorr float64
	maxPos  int64 // absolute position of the best peak so far
	maxI    int   // index of that peak within the current slice, -1 if it was found in a prior one

	savedBurst []Sample
	log        *log.Logger
}

// NewRACHDetector constructs a detector with the given burst_offset
// (signed), burst_length, and scan_window parameters.
func NewRACHDetector(burstOffset, burstLength, scanWindow int) *RACHDetector {
	return &RACHDetector{
		burstOffset: burstOffset,
		burstLength: burstLength,
		scanWindow:  scanWindow,
		tagName:     "len",
	}
}

// SetLogger enables the per-emission debug diagnostic. Detections are
// reported only through Work's results; the log line is strictly a
// debugging aid.
func (d *RACHDetector) SetLogger(l *log.Logger) { d.log = l }

// SetRACHScanWindow updates scan_window at runtime (e.g. from the status
// API). It takes effect the next time the countdown is loaded: on an
// Idle->Locked transition or on an improved peak while Locked. A
// countdown already running is not changed.
func (d *RACHDetector) SetRACHScanWindow(window int) error {
	if window < 1 {
		return fmt.Errorf("gmr1: scan_window must be positive, got %d", window)
	}
	d.scanWindow = window
	return nil
}

// RequiredHistory returns 1 + burst_length + max(burst_offset, 0), the
// lookback in samples for a caller that keeps its own history. Work does
// not read samples before index 0 of the slice it is given.
func (d *RACHDetector) RequiredHistory() int {
	offset := d.burstOffset
	if offset < 0 {
		offset = 0
	}
	return 1 + d.burstLength + offset
}

// WorkResult is one emitted burst from a Work call.
type WorkResult struct {
	Burst   []Sample
	Tag     RACHTag
	PeakPos int64 // absolute position of the best correlation peak
	EmitPos int64 // absolute position at which the scan window expired
}

// Work scans one slice of raw/pwr/corr samples (all the same length;
// index 0 of each corresponds to absolute position basePos) and returns
// every burst emitted during this slice, in order. Every index is
// scanned as a new sample. Samples of earlier slices are not kept as
// lookback: any part of a burst window that falls before index 0 or past
// the end of the slice is zero-filled.
func (d *RACHDetector) Work(raw []Sample, pwr, corr []float64, basePos int64) []WorkResult {
	if len(raw) != len(pwr) || len(raw) != len(corr) {
		panic(fmt.Sprintf("gmr1: rach detector input length mismatch: raw=%d pwr=%d corr=%d", len(raw), len(pwr), len(corr)))
	}

	// A max recorded in a prior slice is only reachable through the
	// saved burst buffer; its in-slice index is meaningless here.
	d.maxI = -1

	var results []WorkResult
	for i := range raw {
		pos := basePos + int64(i)
		triggered := corr[i] > RACHTriggerRatio*pwr[i]

		if d.cnt == 0 {
			if triggered {
				d.cnt = d.scanWindow
				d.maxCorr = corr[i]
				d.maxPos = pos
				d.maxI = i
			}
			continue
		}

		if triggered && corr[i] > d.maxCorr {
			d.maxCorr = corr[i]
			d.maxPos = pos
			d.maxI = i
			d.cnt = d.scanWindow
		} else {
			d.cnt--
		}

		if d.cnt == 0 {
			if d.log != nil {
				d.log.Debug("rach burst", "peak_pos", d.maxPos, "emit_pos", pos, "corr", d.maxCorr)
			}
			burst := d.extractBurst(raw)
			results = append(results, WorkResult{
				Burst:   burst,
				Tag:     RACHTag{Key: d.tagName, Value: d.burstLength},
				PeakPos: d.maxPos,
				EmitPos: pos,
			})
			d.maxCorr = 0
			d.maxI = -1
			d.savedBurst = nil
		}
	}

	if d.cnt > 0 && d.maxI >= 0 {
		d.saveBurst(raw)
	}

	return results
}

// extractBurst copies burst_length samples starting at the recorded
// peak plus burst_offset, from the current slice if the peak was found
// there, otherwise from the buffer saved at the end of a prior Work
// call.
func (d *RACHDetector) extractBurst(raw []Sample) []Sample {
	if d.maxI >= 0 {
		return sliceOrZero(raw, d.maxI+d.burstOffset, d.burstLength)
	}
	if d.savedBurst != nil {
		return d.savedBurst
	}
	return make([]Sample, d.burstLength)
}

func (d *RACHDetector) saveBurst(raw []Sample) {
	start := d.maxI + d.burstOffset
	d.savedBurst = sliceOrZero(raw, start, d.burstLength)
}

// sliceOrZero copies length samples starting at start from src,
// zero-filling any portion that falls outside src's bounds (this happens
// whenever a burst window crosses the start or end of a Work slice).
func sliceOrZero(src []Sample, start, length int) []Sample {
	out := make([]Sample, length)
	for i := 0; i < length; i++ {
		idx := start + i
		if idx >= 0 && idx < len(src) {
			out[i] = src[idx]
		}
	}
	return out
}
