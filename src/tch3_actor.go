package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	TCH3 traffic actor: quarter-rate traffic
 *		channel, spawned by a BCCH actor off an immediate
 *		assignment. Dispatches each frame to DKAB, FACCH3 (stolen,
 *		arriving as four quarter-bursts) or speech-3 decoding, and
 *		spawns a TCH9 actor on a channel-assignment command.
 *
 * Description:	Alignment phase mirrors BCCHActor's. Per frame, the
 *		actor maps a burst window using the FACCH3 descriptor as
 *		reference geometry and picks a path by comparing burst
 *		energy against `det = (energy_dkab + energy_burst) / 4`, a
 *		low-pass discriminator of DKAB and burst energy.
 *
 *---------------------------------------------------------------*/

import "github.com/charmbracelet/log"

type tch3Phase int

const (
	tch3Aligning tch3Phase = iota
	tch3Scheduled
)

// TCH3Actor is the Consumer spawned by BCCHActor on an immediate
// assignment.
type TCH3Actor struct {
	phase   tch3Phase
	time    int64
	channel int
	sps     int
	ctx     *Context
	log     *log.Logger

	align    int64
	freqErr  float64
	tn       int
	dkabPos  int
	alignErr int64

	energyDKAB  float64
	energyBurst float64
	weakCnt     int
	refEnergy   float64

	facchGroup  [4][]int8
	facchBaseFN uint32 // frame number of slot 0 of the accumulating group
	facchHave   int
	followed    bool

	fn uint32

	decoder FrameDecoder
	demod   BurstDemod
	cipher  CipherStream
	detect  func([]Sample, int) BurstKind
}

func NewTCH3Actor() *TCH3Actor {
	return &TCH3Actor{
		decoder: ChecksumFrameDecoder{},
		demod:   CorrelationDemod{},
		cipher:  NullCipher{},
		detect:  Pi4CQPSKDetect,
	}
}

// WithAlignment sets the state inherited from the spawning BCCH actor:
// the derived alignment index, its accumulated frequency error, and
// half its broadcast-channel reference energy.
func (a *TCH3Actor) WithAlignment(align int64, freqErr, refEnergy float64, tn, dkabPos int) *TCH3Actor {
	a.align = align
	a.freqErr = freqErr
	a.refEnergy = refEnergy
	a.energyBurst = refEnergy // seed the discriminator until real bursts arrive
	a.tn = tn
	a.dkabPos = dkabPos
	return a
}

func (a *TCH3Actor) Init(ctx *Context, channel int, start int64) error {
	a.ctx = ctx
	a.channel = channel
	a.sps = ctx.SPS
	a.time = start
	a.log = ctx.sublogger("tch3", channel)
	return nil
}

func (a *TCH3Actor) Fini() {}

func (a *TCH3Actor) marginSamples() int64 { return int64(TCH3MarginSymbols * a.sps) }
func (a *TCH3Actor) frameLen() int64      { return FrameLen(a.sps) }

func (a *TCH3Actor) Consume(window []Sample) int {
	need := 2*a.marginSamples() + 2*a.frameLen()
	if int64(len(window)) < need {
		return 0
	}

	if a.phase == tch3Aligning {
		target := a.align - a.marginSamples()
		if a.time < target {
			toDiscard := target - a.time
			if int64(len(window)) < toDiscard {
				a.time += int64(len(window))
				return len(window)
			}
			a.time += toDiscard
			a.phase = tch3Scheduled
			return int(toDiscard)
		}
		a.phase = tch3Scheduled
	}

	return a.consumeFrame(window)
}

func (a *TCH3Actor) consumeFrame(window []Sample) int {
	baseAlign := int(a.marginSamples())
	start := baseAlign + a.sps*a.tn*SymbolsPerSlot
	pad := 10 * a.sps
	winStart := start - pad
	if winStart < 0 {
		winStart = 0
	}
	winEnd := start + a.sps*DescFACCH3.LengthSymbols + pad
	if winEnd > len(window) {
		winEnd = len(window)
	}

	if winStart < winEnd {
		burst := window[winStart:winEnd]
		result := a.demod.Demod(burst, DescFACCH3, a.sps)
		det := (a.energyDKAB + a.energyBurst) / 4

		if result.Energy < det {
			a.handleDKAB(burst, result.Energy)
			if a.weakCnt > TCH3WeakDKABThreshold {
				a.log.Warn("tch3 channel lost", "weak_dkabs", a.weakCnt)
				return TerminateError
			}
		} else {
			a.weakCnt = 0
			a.energyBurst = 0.1*result.Energy + 0.9*a.energyBurst
			if a.detect(burst, a.sps) == BurstFACCH3 {
				a.handleFACCH3(result)
			} else {
				a.handleSpeech3(result)
			}
			a.freqErr += result.FreqErr
		}
		a.alignErr += int64(round(result.TOA) - float64(pad))
	}

	advance := a.frameLen() + alignShift(&a.alignErr)
	a.fn++
	a.time += advance
	return int(advance)
}

// handleDKAB demodulates the keepalive burst; be is the burst energy
// already measured over the full burst geometry, which also feeds the
// DKAB energy tracker on a strong burst.
func (a *TCH3Actor) handleDKAB(burst []Sample, be float64) {
	result := a.demod.Demod(burst, DescDKAB, a.sps)
	if a.decoder.DecodeDKAB(result.SoftBits) {
		a.weakCnt++
		return
	}
	a.energyDKAB = 0.1*be + 0.9*a.energyDKAB
}

// handleFACCH3 accumulates the four quarter-bursts of a FACCH3 frame,
// identified by fn&3 within the 4-frame group starting at fn&^3. A burst
// belonging to a different group than the one accumulating flushes the
// stale group first.
func (a *TCH3Actor) handleFACCH3(result DemodResult) {
	baseFN := a.fn &^ 3
	bi := int(a.fn & 3)
	if a.facchHave > 0 && baseFN != a.facchBaseFN {
		a.flushFACCHGroup()
	}
	if a.facchHave == 0 {
		a.facchBaseFN = baseFN
	}
	a.facchGroup[bi] = result.SoftBits
	a.facchHave++

	if bi == 3 {
		a.flushFACCHGroup()
	}
}

func (a *TCH3Actor) flushFACCHGroup() {
	if a.facchHave == 0 {
		return
	}
	var softBits [4][]int8
	var cipherBits [4][]byte
	for i := 0; i < 4; i++ {
		softBits[i] = a.facchGroup[i]
		cipherBits[i] = a.cipher.Generate(0, 0, a.facchBaseFN+uint32(i), len(a.facchGroup[i]))
	}

	payload, ca, isAssign, ok := a.decoder.DecodeFACCH3(softBits, cipherBits)
	if ok {
		_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstFACCH3, FACCH: true}, a.ctx.ARFCNForChannel(a.channel), a.facchBaseFN+3, a.tn, payload)
		if isAssign && !a.followed {
			ch, found := a.ctx.ChannelForARFCN(ca.ARFCN)
			if found {
				tch9 := NewTCH9Actor().WithAlignment(a.time, a.freqErr, ca.TN)
				a.ctx.Spawner.Spawn(ch, tch9)
				a.followed = true
				a.log.Info("spawned tch9", "arfcn", ca.ARFCN, "tn", ca.TN)
			} else {
				a.log.Warn("channel assignment to unknown arfcn", "arfcn", ca.ARFCN)
			}
		}
	}

	a.facchGroup = [4][]int8{}
	a.facchHave = 0
}

func (a *TCH3Actor) handleSpeech3(result DemodResult) {
	const speechCipherBits = 208
	cipher := a.cipher.Generate(0, 0, a.fn, speechCipherBits)
	frameA, frameB := a.decoder.DecodeSpeech3(result.SoftBits, cipher)
	_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstSpeech3}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.tn, frameA)
	_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstSpeech3}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.tn, frameB)
	_ = a.ctx.Dump.DumpSpeech(a.ctx.ARFCNForChannel(a.channel), a.tn, a.fn, append(append([]byte{}, frameA...), frameB...))
}
