package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Sample bus and cooperative scheduler.
 *
 * Description:	Single-threaded round-robin scheduler over N channels.
 *		Each channel has zero or one producer and a set of
 *		independent consumers. A consumer's window always begins
 *		exactly at its own cursor; the ring for a channel advances
 *		only to the minimum consumer cursor, so no in-flight
 *		sample is ever dropped.
 *
 *		Spawns (Bus.Spawn, called from inside a consumer's
 *		Consume) are queued and flushed once per sweep, after
 *		every channel has been processed: the bus owns the
 *		consumer list per channel, spawns are deferred appends, so
 *		an actor iterating over that list mid-sweep never sees it
 *		mutate out from under it.
 *
 *---------------------------------------------------------------*/

import "github.com/charmbracelet/log"

type consumerSlot struct {
	actor  Consumer
	cursor int64
}

type producerSlot struct {
	actor      Producer
	terminated bool
}

type channelState struct {
	ring       *Ring
	producer   *producerSlot
	consumers  []*consumerSlot
	scratchBuf []Sample
}

type spawnRequest struct {
	channel int
	actor   Consumer
}

// Bus is the cooperative scheduler and per-channel ring-buffer owner.
type Bus struct {
	ctx      *Context
	channels []*channelState
	pending  []spawnRequest
	log      *log.Logger
}

// Alloc creates a bus for nChans channels, each with the given ring
// capacity.
func Alloc(ctx *Context, nChans, ringCapacity int) *Bus {
	b := &Bus{ctx: ctx, log: ctx.Log.With("component", "bus")}
	for i := 0; i < nChans; i++ {
		b.channels = append(b.channels, &channelState{
			ring:       NewRing(ringCapacity),
			scratchBuf: make([]Sample, ringCapacity),
		})
	}
	ctx.Spawner = b
	return b
}

// SetProducer replaces any prior producer on the channel.
func (b *Bus) SetProducer(channel int, p Producer) error {
	ch := b.channels[channel]
	if err := p.Init(b.ctx, channel, ch.ring.Tail()); err != nil {
		return err
	}
	ch.producer = &producerSlot{actor: p}
	return nil
}

// AddConsumer registers a new consumer with its cursor at the earliest
// sample still available on its channel; the actor learns that absolute
// start index through Init. May be called directly before Work, or
// indirectly via Spawn from inside another actor's Consume.
func (b *Bus) AddConsumer(channel int, c Consumer) error {
	ch := b.channels[channel]
	start := ch.ring.Start()
	if err := c.Init(b.ctx, channel, start); err != nil {
		return err
	}
	ch.consumers = append(ch.consumers, &consumerSlot{actor: c, cursor: start})
	return nil
}

// Spawn implements Spawner: queues a consumer to be added at the end of
// the current sweep, so the spawn takes effect on the next sweep but no
// later.
func (b *Bus) Spawn(channel int, c Consumer) {
	b.pending = append(b.pending, spawnRequest{channel: channel, actor: c})
}

// Work runs the scheduler until every producer has terminated and no
// consumer makes progress, or until no consumers remain on any channel.
func (b *Bus) Work() {
	for {
		anyProgress := false
		allProducersTerminated := true

		for idx, ch := range b.channels {
			if ch.producer != nil && !ch.producer.terminated {
				allProducersTerminated = false
				if space := ch.ring.Free(); space > 0 {
					n := ch.producer.actor.Produce(ch.scratchBuf[:space])
					if n < 0 {
						b.log.Debug("producer terminated", "channel", idx, "code", n)
						ch.producer.actor.Fini()
						ch.producer.terminated = true
					} else if n > 0 {
						ch.ring.Append(ch.scratchBuf[:n])
						anyProgress = true
					}
				}
			}

			survivors := ch.consumers[:0]
			for _, cs := range ch.consumers {
				window := ch.ring.Window(cs.cursor)
				if len(window) == 0 {
					survivors = append(survivors, cs)
					continue
				}

				r := cs.actor.Consume(window)
				if r < 0 {
					b.log.Debug("consumer terminated", "channel", idx, "code", r)
					cs.actor.Fini()
					continue
				}
				if r > 0 {
					cs.cursor += int64(r)
					anyProgress = true
				}
				survivors = append(survivors, cs)
			}
			ch.consumers = survivors
		}

		b.flushSpawns()

		// Rings advance only after queued spawns have joined: a child
		// spawned by a terminating parent must still find the samples
		// the parent left unconsumed.
		totalConsumers := 0
		for _, ch := range b.channels {
			totalConsumers += len(ch.consumers)
			minCursor := ch.ring.Tail()
			for _, cs := range ch.consumers {
				if cs.cursor < minCursor {
					minCursor = cs.cursor
				}
			}
			ch.ring.Advance(minCursor)
		}

		if totalConsumers == 0 {
			return
		}
		if allProducersTerminated && !anyProgress {
			return
		}
	}
}

// flushSpawns appends queued consumers to their channel's consumer list
// and initializes them; their cursor starts at the channel's current
// ring start, the earliest sample still held.
func (b *Bus) flushSpawns() {
	if len(b.pending) == 0 {
		return
	}
	reqs := b.pending
	b.pending = nil
	for _, req := range reqs {
		if err := b.AddConsumer(req.channel, req.actor); err != nil {
			b.log.Error("spawn failed", "channel", req.channel, "error", err)
		}
	}
}

// ChannelCount reports how many channels this bus was allocated with.
func (b *Bus) ChannelCount() int { return len(b.channels) }

// Snapshot returns a point-in-time view of actor cursors, for the status
// API and for tests asserting the ring-advance invariant.
type ChannelSnapshot struct {
	Channel       int
	RingStart     int64
	RingTail      int64
	ConsumerCount int
	MinCursor     int64
	ProducerAlive bool
}

func (b *Bus) Snapshot() []ChannelSnapshot {
	out := make([]ChannelSnapshot, 0, len(b.channels))
	for idx, ch := range b.channels {
		min := ch.ring.Tail()
		for _, cs := range ch.consumers {
			if cs.cursor < min {
				min = cs.cursor
			}
		}
		out = append(out, ChannelSnapshot{
			Channel:       idx,
			RingStart:     ch.ring.Start(),
			RingTail:      ch.ring.Tail(),
			ConsumerCount: len(ch.consumers),
			MinCursor:     min,
			ProducerAlive: ch.producer != nil && !ch.producer.terminated,
		})
	}
	return out
}
