package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Tap protocol emitter: one UDP datagram per decoded frame,
 *		to 127.0.0.1:4729 by default.
 *
 * Description:	A fixed TapHeader followed by the raw payload bytes,
 *		hand-rolled because binary.Write won't send a
 *		variable-length slice inline with a fixed header. The tap
 *		sink is process-wide and single-writer: only the
 *		scheduler goroutine ever calls Emit, so no locking is
 *		needed.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"net"
)

// DefaultTapAddr is the standardized GSMTAP port.
const DefaultTapAddr = "127.0.0.1:4729"

// ChannelTag identifies the burst kind and FACCH-stolen flag in a tap
// header.
type ChannelTag struct {
	Kind  BurstKind
	FACCH bool
}

// TapHeader is the fixed-size portion of a tap datagram.
type TapHeader struct {
	ChannelType byte // BurstKind, with high bit set if FACCH-stolen
	_           [3]byte
	ARFCN       uint32
	FrameNumber uint32
	Timeslot    uint8
	_           [3]byte
	PayloadLen  uint32
}

const facchFlag = 0x80

func (t ChannelTag) encode() byte {
	b := byte(t.Kind)
	if t.FACCH {
		b |= facchFlag
	}
	return b
}

// TapSink emits decoded frames as UDP datagrams. It is safe to share
// across actors so long as Emit is only ever called from the single
// scheduler goroutine.
type TapSink struct {
	conn *net.UDPConn
}

// NewTapSink dials the given UDP address (use DefaultTapAddr for the
// standard GSMTAP port).
func NewTapSink(addr string) (*TapSink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("gmr1: resolve tap addr: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("gmr1: dial tap: %w", err)
	}
	return &TapSink{conn: conn}, nil
}

// Close releases the underlying socket.
func (t *TapSink) Close() error {
	if t == nil || t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// Emit sends one decoded frame as a tap datagram.
func (t *TapSink) Emit(tag ChannelTag, arfcn int, fn uint32, tn int, payload []byte) error {
	if t == nil || t.conn == nil {
		return nil
	}
	hdr := TapHeader{
		ChannelType: tag.encode(),
		ARFCN:       uint32(arfcn),
		FrameNumber: fn,
		Timeslot:    uint8(tn),
		PayloadLen:  uint32(len(payload)),
	}
	buf := make([]byte, 0, 20+len(payload))
	w := &sliceWriter{buf: &buf}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("gmr1: encode tap header: %w", err)
	}
	buf = append(buf, payload...)
	_, err := t.conn.Write(buf)
	return err
}

// sliceWriter adapts a growable []byte to io.Writer for binary.Write.
type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
