package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	TCH9 traffic actor: full-rate traffic
 *		channel, spawned by a TCH3 actor on a channel-assignment
 *		command. One 9.6 kbit/s burst per frame, dispatched between
 *		FACCH9 (stolen, sync_id 0) and TCH9 (sync_id 1).
 *
 * Description:	Simplest of the traffic actors: no energy-based path
 *		selection. The sync_id is taken from the frame number's
 *		parity (fn&1); the burst's own sync sequence is not
 *		examined.
 *		FACCH9 has a CRC and a bad-CRC teardown threshold; TCH9 has
 *		no CRC and is emitted unconditionally once its persistent
 *		interleaver has accumulated a full depth of frames.
 *
 *---------------------------------------------------------------*/

import "github.com/charmbracelet/log"

type tch9Phase int

const (
	tch9Aligning tch9Phase = iota
	tch9Scheduled
)

// TCH9Actor is the Consumer spawned by TCH3Actor on a channel assignment.
type TCH9Actor struct {
	phase   tch9Phase
	time    int64
	channel int
	sps     int
	ctx     *Context
	log     *log.Logger

	align    int64
	freqErr  float64
	tn       int
	alignErr int64
	badCRC   int
	fn       uint32

	interleaver *TCH9Interleaver

	decoder FrameDecoder
	demod   BurstDemod
	cipher  CipherStream
}

// TCH9InterleaverDepth is how many consecutive frames the TCH9
// interleaver spans. 4 matches the FACCH3 quarter-burst grouping used
// for the sibling quarter-rate channel.
const TCH9InterleaverDepth = 4

func NewTCH9Actor() *TCH9Actor {
	return &TCH9Actor{
		decoder:     ChecksumFrameDecoder{},
		demod:       CorrelationDemod{},
		cipher:      NullCipher{},
		interleaver: NewTCH9Interleaver(TCH9InterleaverDepth),
	}
}

// WithAlignment sets the state inherited from the spawning TCH3 actor.
func (a *TCH9Actor) WithAlignment(align int64, freqErr float64, tn int) *TCH9Actor {
	a.align = align
	a.freqErr = freqErr
	a.tn = tn
	return a
}

func (a *TCH9Actor) Init(ctx *Context, channel int, start int64) error {
	a.ctx = ctx
	a.channel = channel
	a.sps = ctx.SPS
	a.time = start
	a.log = ctx.sublogger("tch9", channel)
	return nil
}

func (a *TCH9Actor) Fini() {}

func (a *TCH9Actor) marginSamples() int64 { return int64(TCH9MarginSymbols * a.sps) }
func (a *TCH9Actor) frameLen() int64      { return FrameLen(a.sps) }

func (a *TCH9Actor) Consume(window []Sample) int {
	need := 2*a.marginSamples() + 2*a.frameLen()
	if int64(len(window)) < need {
		return 0
	}

	if a.phase == tch9Aligning {
		target := a.align - a.marginSamples()
		if a.time < target {
			toDiscard := target - a.time
			if int64(len(window)) < toDiscard {
				a.time += int64(len(window))
				return len(window)
			}
			a.time += toDiscard
			a.phase = tch9Scheduled
			return int(toDiscard)
		}
		a.phase = tch9Scheduled
	}

	return a.consumeFrame(window)
}

func (a *TCH9Actor) consumeFrame(window []Sample) int {
	baseAlign := int(a.marginSamples())
	start := baseAlign + a.sps*a.tn*SymbolsPerSlot
	pad := 10 * a.sps
	winStart := start - pad
	if winStart < 0 {
		winStart = 0
	}
	winEnd := start + a.sps*DescTCH9.LengthSymbols + pad
	if winEnd > len(window) {
		winEnd = len(window)
	}

	if winStart < winEnd {
		burst := window[winStart:winEnd]
		result := a.demod.Demod(burst, DescTCH9, a.sps)
		a.freqErr += result.FreqErr
		a.alignErr += int64(round(result.TOA) - float64(pad))

		syncID := int(a.fn & 1)
		if syncID == 0 {
			const facch9CipherBits = 658
			cipher := a.cipher.Generate(0, 0, a.fn, facch9CipherBits)
			payload, ok := a.decoder.DecodeFACCH9(result.SoftBits, cipher)
			if ok {
				a.badCRC = 0
				_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstFACCH9, FACCH: true}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.tn, payload)
			} else {
				a.badCRC++
				if a.badCRC > FACCH9BadCRCThreshold {
					a.log.Warn("tch9 channel lost", "bad_crc", a.badCRC)
					return TerminateError
				}
			}
		} else {
			cipher := a.cipher.Generate(0, 0, a.fn, len(result.SoftBits))
			payload := a.decoder.DecodeTCH9(result.SoftBits, cipher, a.interleaver)
			if payload != nil {
				_ = a.ctx.Tap.Emit(ChannelTag{Kind: BurstTCH9}, a.ctx.ARFCNForChannel(a.channel), a.fn, a.tn, payload)
				_ = a.ctx.Dump.DumpCSD(a.ctx.ARFCNForChannel(a.channel), a.tn, a.fn, payload)
			}
		}
	}

	advance := a.frameLen() + alignShift(&a.alignErr)
	a.fn++
	a.time += advance
	return int(advance)
}
