package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Sample actor base: the capability set {init, work, fini}
 *		shared by every actor kind, plus the process-wide
 *		collaborators (tap sink, dump directory, logger, spawn
 *		capability) actors need without reaching for globals.
 *
 * Description:	Producer and Consumer are the per-kind dispatch table
 *		expressed as Go interfaces; Context is the explicit
 *		parameter bundle carried from main into each actor so
 *		nothing is reached through a hidden global.
 *
 *---------------------------------------------------------------*/

import "github.com/charmbracelet/log"

// Terminal return codes: a negative return from a work invocation is
// the sole way an actor ends. Concrete actors may return any negative
// int; these two are the common cases and exist only for readability at
// call sites.
const (
	TerminateDone  = -1 // clean shutdown (EOF, graceful handoff to a child)
	TerminateError = -2 // channel loss: CRC/weak-burst threshold exceeded
)

// Spawner is the narrow capability the bus exposes to actors so they can
// request new consumers on any channel without holding a full reference
// to the bus.
type Spawner interface {
	Spawn(channel int, consumer Consumer)
}

// Context bundles the process-wide collaborators every actor needs:
// the tap sink, the optional debug-dump directory, a logger, and the
// spawn capability. It is threaded explicitly through Init rather than
// read from a package-level global.
type Context struct {
	Tap          *TapSink
	Dump         *Dumper
	Spawner      Spawner
	Log          *log.Logger
	SPS          int         // samples per symbol, fixed for the lifetime of a run
	ARFCNs       map[int]int // ARFCN -> channel index, for cross-channel assignment spawns
	channelARFCN map[int]int // channel index -> ARFCN, the reverse of ARFCNs, for tap/dump headers
}

// ChannelForARFCN resolves an assignment's target ARFCN to the channel
// index the scheduler knows it by. ok is false if no channel was
// configured for that ARFCN.
func (c *Context) ChannelForARFCN(arfcn int) (int, bool) {
	ch, ok := c.ARFCNs[arfcn]
	return ch, ok
}

// ARFCNForChannel resolves a bus channel index back to the absolute
// frequency channel number configured for it, for tap headers and dump
// filenames. Channel indices are an internal scheduling detail, not the
// ARFCN a deployment actually cares about. Lazily built from ARFCNs on
// first use.
func (c *Context) ARFCNForChannel(channel int) int {
	if c.channelARFCN == nil {
		c.channelARFCN = make(map[int]int, len(c.ARFCNs))
		for arfcn, ch := range c.ARFCNs {
			c.channelARFCN[ch] = arfcn
		}
	}
	if arfcn, ok := c.channelARFCN[channel]; ok {
		return arfcn
	}
	return channel
}

// sublogger returns a child logger tagged with the actor's component
// name and channel, one log.Logger per concern.
func (c *Context) sublogger(component string, channel int) *log.Logger {
	return c.Log.With("component", component, "channel", channel)
}

// alignShift applies the alignment-error correction rule shared by the
// BCCH/TCH3/TCH9 actors: once the accumulator exceeds 4, the next frame
// is lengthened or shortened by one sample and the accumulator gives
// back 4 of matching sign.
func alignShift(alignErr *int64) int64 {
	switch {
	case *alignErr > 4:
		*alignErr -= 4
		return 1
	case *alignErr < -4:
		*alignErr += 4
		return -1
	}
	return 0
}

// Actor is the lifecycle shared by producers and consumers.
type Actor interface {
	// Init binds the actor to its channel and context before the
	// scheduler invokes it for the first time. start is the absolute
	// sample index of the first sample the actor will see: the cursor
	// for a consumer, the ring tail for a producer. Actors that track
	// an absolute time cursor seed it from start, so an alignment
	// index inherited from a parent on the same stream stays
	// comparable.
	Init(ctx *Context, channel int, start int64) error
	// Fini releases any resources; called synchronously once, right
	// after a terminal Work return.
	Fini()
}

// Producer yields samples for one channel. Produce must not block on
// I/O; a producer with nothing new to offer returns 0 so the scheduler
// can come back later.
type Producer interface {
	Actor
	// Produce writes up to len(buf) samples into buf starting at index
	// 0 and returns the count written, or a negative terminal code on
	// permanent failure/EOF.
	Produce(buf []Sample) int
}

// Consumer processes a read-only window of samples starting exactly at
// its own cursor. Consume returns the number of leading samples it has
// finished with (advance the cursor by that much), 0 to be re-invoked
// once more data accrues, or a negative terminal code to self-terminate.
type Consumer interface {
	Actor
	Consume(window []Sample) int
}
