package gmr1

import (
	"io"

	"github.com/charmbracelet/log"
)

// Scripted leaf collaborators for driving the actor state machines
// without real DSP: a demodulator that always returns a fixed result,
// and a decoder whose per-message behavior is supplied as closures
// (nil closures behave as decode failures).

type scriptedDemod struct {
	result DemodResult
}

func (d scriptedDemod) Demod([]Sample, BurstDescriptor, int) DemodResult { return d.result }

type scriptedDecoder struct {
	onBCCH   func() ([]byte, SystemInfoMessage, bool)
	onCCCH   func() ([]byte, ImmediateAssignment, bool, bool)
	onFACCH3 func() ([]byte, ChannelAssignment, bool, bool)
	onFACCH9 func() ([]byte, bool)
	onTCH9   func() []byte
	onDKAB   func() bool
}

func (d *scriptedDecoder) DecodeBCCH([]int8) ([]byte, SystemInfoMessage, bool) {
	if d.onBCCH == nil {
		return nil, SystemInfoMessage{}, false
	}
	return d.onBCCH()
}

func (d *scriptedDecoder) DecodeCCCH([]int8) ([]byte, ImmediateAssignment, bool, bool) {
	if d.onCCCH == nil {
		return nil, ImmediateAssignment{}, false, false
	}
	return d.onCCCH()
}

func (d *scriptedDecoder) DecodeFACCH3([4][]int8, [4][]byte) ([]byte, ChannelAssignment, bool, bool) {
	if d.onFACCH3 == nil {
		return nil, ChannelAssignment{}, false, false
	}
	return d.onFACCH3()
}

func (d *scriptedDecoder) DecodeSpeech3(softBits []int8, cipher []byte) ([]byte, []byte) {
	return ChecksumFrameDecoder{}.DecodeSpeech3(softBits, cipher)
}

func (d *scriptedDecoder) DecodeFACCH9([]int8, []byte) ([]byte, bool) {
	if d.onFACCH9 == nil {
		return nil, false
	}
	return d.onFACCH9()
}

func (d *scriptedDecoder) DecodeTCH9([]int8, []byte, *TCH9Interleaver) []byte {
	if d.onTCH9 == nil {
		return nil
	}
	return d.onTCH9()
}

func (d *scriptedDecoder) DecodeDKAB([]int8) bool {
	if d.onDKAB == nil {
		return false
	}
	return d.onDKAB()
}

// recordingSpawner captures spawn requests instead of scheduling them.
type recordingSpawner struct {
	channels []int
	actors   []Consumer
}

func (s *recordingSpawner) Spawn(channel int, c Consumer) {
	s.channels = append(s.channels, channel)
	s.actors = append(s.actors, c)
}

func actorTestContext(sps int) (*Context, *recordingSpawner) {
	sp := &recordingSpawner{}
	return &Context{Log: log.New(io.Discard), SPS: sps, ARFCNs: map[int]int{}, Spawner: sp}, sp
}
