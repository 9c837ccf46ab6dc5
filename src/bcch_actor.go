package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	BCCH/CCCH actor: tracks the broadcast control
 *		channel once an FCCH actor has handed off a coarse
 *		alignment, recalibrates that alignment every frame, and
 *		spawns a TCH3 actor when an immediate assignment arrives on
 *		CCCH.
 *
 * Description:	Two phases: an alignment phase that
 *		discards samples until self.time reaches align−MARGIN·sps,
 *		then a per-frame scheduled phase that demodulates either a
 *		BCCH or CCCH burst depending on sirfn mod 8, feeding the
 *		frame decoder and cipher-stream leaf collaborators. CRC
 *		failures accumulate into bcch_err; the actor tears itself
 *		down once that exceeds BCCHBadCRCThreshold.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

type bcchPhase int

const (
	bcchAligning bcchPhase = iota
	bcchScheduled
)

// BCCHActor is the Consumer spawned by FCCHActor once a candidate FCCH
// burst has been accepted.
type BCCHActor struct {
	phase   bcchPhase
	time    int64 // absolute sample index of the next sample to consume
	channel int
	sps     int
	ctx     *Context
	log     *log.Logger

	align   int64 // absolute alignment index inherited from FCCH acquisition
	freqErr float64

	fn             uint32
	sirfnDelay     int
	bcchSlot       int
	bcchErr        int
	bcchEnergy     float64
	alignErr       int64
	lastAssign     ImmediateAssignment
	haveLastAssign bool

	decoder FrameDecoder
	demod   BurstDemod
	cipher  CipherStream
}

// NewBCCHActor constructs a BCCHActor with the default leaf
// collaborators; the absolute alignment index and residual frequency
// error inherited from FCCH acquisition are set through WithAlignment.
func NewBCCHActor() *BCCHActor {
	return &BCCHActor{
		decoder: ChecksumFrameDecoder{},
		demod:   CorrelationDemod{},
		cipher:  NullCipher{},
	}
}

// WithAlignment sets the inherited alignment/freq_err that FCCHActor
// computes before spawning. Exposed as a setter (rather than a
// constructor arg) so FCCHActor.spawnBCCH can configure a freshly
// constructed actor before handing it to the spawner.
func (a *BCCHActor) WithAlignment(align int64, freqErr float64) *BCCHActor {
	a.align = align
	a.freqErr = freqErr
	return a
}

func (a *BCCHActor) Init(ctx *Context, channel int, start int64) error {
	a.ctx = ctx
	a.channel = channel
	a.sps = ctx.SPS
	a.time = start
	a.log = ctx.sublogger("bcch", channel)
	return nil
}

func (a *BCCHActor) Fini() {}

func (a *BCCHActor) marginSamples() int64 {
	return int64(BCCHMarginSymbols * a.sps)
}

func (a *BCCHActor) frameLen() int64 {
	return FrameLen(a.sps)
}

func (a *BCCHActor) Consume(window []Sample) int {
	need := 2*a.marginSamples() + 2*a.frameLen()
	if int64(len(window)) < need {
		return 0
	}

	if a.phase == bcchAligning {
		target := a.align - a.marginSamples()
		if a.time < target {
			toDiscard := target - a.time
			if int64(len(window)) < toDiscard {
				a.time += int64(len(window))
				return len(window)
			}
			a.time += toDiscard
			a.phase = bcchScheduled
			return int(toDiscard)
		}
		a.phase = bcchScheduled
	}

	return a.consumeFrame(window)
}

func (a *BCCHActor) consumeFrame(window []Sample) int {
	baseAlign := int(a.marginSamples())
	sirfn := int((a.fn - uint32(a.sirfnDelay)) % 64)

	switch {
	case sirfn%8 == 2:
		a.decodeBCCH(window, baseAlign)
	case sirfn%8 != 0:
		a.decodeCCCH(window, baseAlign)
	}

	if a.bcchErr > BCCHBadCRCThreshold {
		a.log.Warn("bcch channel lost", "bcch_err", a.bcchErr)
		return TerminateError
	}

	advance := a.frameLen() + alignShift(&a.alignErr)
	a.fn++
	a.time += advance
	return int(advance)
}

func (a *BCCHActor) decodeBCCH(window []Sample, baseAlign int) {
	pad := 20 * a.sps
	start := baseAlign + a.sps*a.bcchSlot*SymbolsPerSlot
	winStart := start - pad
	if winStart < 0 {
		winStart = 0
	}
	winEnd := start + a.sps*DescBCCH.LengthSymbols + pad
	if winEnd > len(window) {
		winEnd = len(window)
	}
	if winStart >= winEnd {
		a.bumpBCCHErr()
		return
	}

	result := a.demod.Demod(window[winStart:winEnd], DescBCCH, a.sps)
	payload, si, ok := a.decoder.DecodeBCCH(result.SoftBits)
	if !ok {
		a.bumpBCCHErr()
		return
	}

	expectedTOA := float64(pad)
	a.alignErr += int64(round(result.TOA) - expectedTOA)
	a.freqErr += result.FreqErr
	a.fn = si.FN
	a.sirfnDelay = si.SIRFNDelay
	a.bcchSlot = si.BCCHSlot
	a.bcchErr = 0
	a.bcchEnergy = result.Energy

	a.log.Info("bcch decoded", "fn", a.fn, "bcch_slot", a.bcchSlot)
	_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstBCCH}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.bcchSlot, payload)
}

func (a *BCCHActor) bumpBCCHErr() {
	a.bcchErr++
}

func (a *BCCHActor) decodeCCCH(window []Sample, baseAlign int) {
	pad := 20 * a.sps
	start := baseAlign + a.sps*a.bcchSlot*SymbolsPerSlot
	winStart := start - pad
	if winStart < 0 {
		winStart = 0
	}
	winEnd := start + a.sps*DescCCCH.LengthSymbols + pad
	if winEnd > len(window) {
		winEnd = len(window)
	}
	if winStart >= winEnd {
		return
	}

	result := a.demod.Demod(window[winStart:winEnd], DescCCCH, a.sps)
	if result.Energy < a.bcchEnergy/2 {
		return
	}

	payload, ia, isAssign, ok := a.decoder.DecodeCCCH(result.SoftBits)
	if !ok {
		return
	}
	_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstCCCH}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.bcchSlot, payload)
	if !isAssign {
		return
	}

	if a.haveLastAssign && a.lastAssign == ia {
		return
	}
	a.lastAssign = ia
	a.haveLastAssign = true

	ch, found := a.ctx.ChannelForARFCN(ia.ARFCN)
	if !found {
		a.log.Warn("immediate assignment to unknown arfcn", "arfcn", ia.ARFCN)
		return
	}

	tch3 := NewTCH3Actor().WithAlignment(a.time+int64(baseAlign), a.freqErr, a.bcchEnergy/2, ia.TN, ia.DKABPos)
	a.ctx.Spawner.Spawn(ch, tch3)
	a.log.Info("spawned tch3", "arfcn", ia.ARFCN, "tn", ia.TN)
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
