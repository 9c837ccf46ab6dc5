package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	File-backed sample producer: reads interleaved 32-bit
 *		float in-phase/quadrature pairs, little-endian, one
 *		stream per file.
 *
 * Description:	The whole file is mapped once at Init via
 *		golang.org/x/sys/unix.Mmap, so Produce is a pure memory
 *		copy, never a blocking read. EOF is simply running off
 *		the end of the mapping.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

const bytesPerSample = 8 // two little-endian float32

// FileProducer is the Producer behind each `arfcn:file` input.
type FileProducer struct {
	path   string
	file   *os.File
	mapped []byte
	offset int
}

func NewFileProducer(path string) *FileProducer {
	return &FileProducer{path: path}
}

func (p *FileProducer) Init(_ *Context, _ int, _ int64) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("gmr1: open sample file %s: %w", p.path, err)
	}
	p.file = f

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("gmr1: stat sample file %s: %w", p.path, err)
	}
	if st.Size() == 0 {
		return nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("gmr1: mmap sample file %s: %w", p.path, err)
	}
	p.mapped = data
	return nil
}

// Produce copies up to len(buf) samples out of the memory-mapped file.
// It returns TerminateDone once the mapping is exhausted.
func (p *FileProducer) Produce(buf []Sample) int {
	remaining := len(p.mapped) - p.offset
	if remaining < bytesPerSample {
		return TerminateDone
	}

	n := len(buf)
	if n*bytesPerSample > remaining {
		n = remaining / bytesPerSample
	}

	for i := 0; i < n; i++ {
		base := p.offset + i*bytesPerSample
		iBits := binary.LittleEndian.Uint32(p.mapped[base : base+4])
		qBits := binary.LittleEndian.Uint32(p.mapped[base+4 : base+8])
		buf[i] = Sample{I: math.Float32frombits(iBits), Q: math.Float32frombits(qBits)}
	}
	p.offset += n * bytesPerSample
	return n
}

func (p *FileProducer) Fini() {
	if p.mapped != nil {
		_ = unix.Munmap(p.mapped)
		p.mapped = nil
	}
	if p.file != nil {
		_ = p.file.Close()
	}
}
