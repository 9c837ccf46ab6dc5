package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	FCCH acquisition actor: the first consumer
 *		on a raw channel, responsible for finding frequency
 *		correction bursts and handing off to one BCCH actor per
 *		surviving candidate.
 *
 * Description:	Two states. SINGLE discards the first FCCHStartDiscard
 *		samples (settling time for an AGC/DC-block ahead of this
 *		actor), then waits for one FCCHSingleWindowMS window, runs
 *		fcch_rough+fcch_fine once, records the result as the
 *		reference frequency error, and advances the cursor to just
 *		before the burst. MULTI then takes one FCCHMultiWindowMS
 *		window, scans it for every candidate burst, always spawns a
 *		BCCH actor for the strongest candidate, and spawns one for
 *		each other candidate that passes the SNR gates (absolute,
 *		and relative to the strongest candidate) and the frequency
 *		gate against that reference, terminating afterwards.
 *
 *---------------------------------------------------------------*/

import (
	"math"

	"github.com/charmbracelet/log"
)

type fcchState int

const (
	fcchSingle fcchState = iota
	fcchMulti
)

// FCCHActor is the Consumer that drives FCCH acquisition for one channel.
type FCCHActor struct {
	state     fcchState
	discarded int64
	refFreq   float64
	time      int64 // absolute sample index of the next sample to consume
	log       *log.Logger
	sps       int
	channel   int
	ctx       *Context
}

func NewFCCHActor() *FCCHActor {
	return &FCCHActor{}
}

func (a *FCCHActor) Init(ctx *Context, channel int, start int64) error {
	a.ctx = ctx
	a.channel = channel
	a.sps = ctx.SPS
	a.time = start
	a.log = ctx.sublogger("fcch", channel)
	return nil
}

func (a *FCCHActor) Fini() {}

func (a *FCCHActor) Consume(window []Sample) int {
	var r int
	switch a.state {
	case fcchSingle:
		r = a.consumeSingle(window)
	default:
		r = a.consumeMulti(window)
	}
	if r > 0 {
		a.time += int64(r)
	}
	return r
}

// consumeSingle acquires the primary FCCH burst: coarse TOA over the
// whole window, fine TOA + frequency error over the burst itself. The
// result becomes the reference for MULTI's candidate gating; the cursor
// lands at the start of the burst so the MULTI window covers it too.
func (a *FCCHActor) consumeSingle(window []Sample) int {
	need := int64(FCCHStartDiscard)
	if a.discarded < need {
		toDiscard := need - a.discarded
		if int64(len(window)) < toDiscard {
			a.discarded += int64(len(window))
			return len(window)
		}
		a.discarded = need
		consumed := int(toDiscard)
		window = window[consumed:]
		if len(window) == 0 {
			return consumed
		}
		return consumed + a.consumeSingle(window)
	}

	winLen := msToSamples(FCCHSingleWindowMS, a.sps)
	if len(window) < winLen {
		return 0
	}

	toa := FCCHRough(window[:winLen], a.sps, 0)
	start := int(toa)
	symWin := a.sps * FCCHSyms
	end := start + symWin
	if end > winLen {
		end = winLen
	}
	_, freqErr := FCCHFine(window[start:end], a.sps, 0)

	a.log.Info("fcch acquired", "toa", toa, "freq_err_hz", radPerSymToHz(freqErr))
	a.refFreq = freqErr
	a.state = fcchMulti
	return start
}

// consumeMulti scans the wide window for every candidate burst. The
// strongest candidate is taken as the reference and always spawned;
// every later candidate is tested against the reference's SNR and the
// reference frequency error before it earns its own BCCH actor.
func (a *FCCHActor) consumeMulti(window []Sample) int {
	winLen := msToSamples(FCCHMultiWindowMS, a.sps)
	if len(window) < winLen {
		return 0
	}

	candidates := FCCHRoughMulti(window[:winLen], a.sps, -a.refFreq, FCCHMultiCapacity)
	if len(candidates) == 0 {
		a.log.Debug("fcch multi found no candidates")
		return TerminateDone
	}

	refSNR := fcchCandidateSNR(window, winLen, candidates[0], a.sps)
	spawned := 0
	for i, c := range candidates {
		if i == 0 {
			a.spawnBCCH(c.TOA, a.refFreq)
			spawned++
			continue
		}
		snr := fcchCandidateSNR(window, winLen, c, a.sps)
		if snr < FCCHMinSNR || snr < refSNR/FCCHRelSNRFactor {
			continue
		}
		start := int(c.TOA)
		end := start + a.sps*FCCHSyms
		if end > winLen {
			end = winLen
		}
		if start >= end {
			continue
		}
		_, freqErr := FCCHFine(window[start:end], a.sps, -a.refFreq)
		if math.Abs(radPerSymToHz(freqErr-a.refFreq)) > FCCHMaxFreqDeltaHz {
			continue
		}
		a.spawnBCCH(c.TOA, a.refFreq)
		spawned++
	}
	a.log.Info("fcch multi complete", "candidates", len(candidates), "spawned", spawned)
	return TerminateDone
}

// fcchCandidateSNR compares the candidate's own burst window against an
// adjacent equal-length window (standing in for the neighboring CICH
// region), an energy ratio rather than a modelled channel geometry.
func fcchCandidateSNR(window []Sample, winLen int, c FCCHCandidate, sps int) float64 {
	start := int(c.TOA)
	symWin := sps * FCCHSyms
	end := start + symWin
	if end > winLen {
		end = winLen
	}
	if start >= end {
		return 0
	}
	burstEnergy := Energy(window[start:end])

	adjStart := end
	adjEnd := adjStart + symWin
	if adjEnd > len(window) {
		adjEnd = len(window)
	}
	if adjStart >= adjEnd {
		return burstEnergy
	}
	adjEnergy := Energy(window[adjStart:adjEnd])
	if adjEnergy <= 0 {
		return burstEnergy
	}
	return burstEnergy / adjEnergy
}

func (a *FCCHActor) spawnBCCH(candidateTOA, freqErr float64) {
	align := a.time + int64(candidateTOA)
	bcch := NewBCCHActor().WithAlignment(align, freqErr)
	a.ctx.Spawner.Spawn(a.channel, bcch)
}

