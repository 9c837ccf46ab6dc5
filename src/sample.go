package gmr1

import "math/cmplx"

// Sample is a complex baseband value: in-phase and quadrature
// components. Streams are indexed by a monotonic 64-bit sample counter,
// carried alongside samples by the ring buffer rather than by the
// sample itself.
type Sample struct {
	I, Q float32
}

// Complex128 widens a Sample for use with math/cmplx, used by MulConj
// and by the RACH FFT block (rach_fft.go) where float64 precision
// matters.
func (s Sample) Complex128() complex128 {
	return complex(float64(s.I), float64(s.Q))
}

func FromComplex128(c complex128) Sample {
	return Sample{I: float32(real(c)), Q: float32(imag(c))}
}

// Abs2 is the magnitude squared, the quantity Energy and the sync-position
// scoring in dsp.go actually need (cheaper than Abs, no sqrt).
func (s Sample) Abs2() float64 {
	return float64(s.I)*float64(s.I) + float64(s.Q)*float64(s.Q)
}

func (s Sample) Add(o Sample) Sample {
	return Sample{I: s.I + o.I, Q: s.Q + o.Q}
}

func (s Sample) Scale(f float64) Sample {
	return Sample{I: float32(float64(s.I) * f), Q: float32(float64(s.Q) * f)}
}

// MulConj returns s * conj(o), the building block of correlation against
// a reference sequence.
func (s Sample) MulConj(o Sample) Sample {
	return FromComplex128(s.Complex128() * cmplx.Conj(o.Complex128()))
}

// Energy sums |x|^2 over a window; used throughout for reference-energy
// tracking (BCCH/CCCH energy gate, FCCH SNR estimate).
func Energy(window []Sample) float64 {
	var total float64
	for _, s := range window {
		total += s.Abs2()
	}
	return total
}
