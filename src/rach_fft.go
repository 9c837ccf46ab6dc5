package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Companion RACH FFT block: the matched-filter power input
 *		RACHDetector expects is itself the peak output of a
 *		sliding-FFT spectral scan over the raw signal.
 *
 * Description:	512-point FFT, 50% overlap, Blackman-Harris window,
 *		magnitude-squared spectrum, moving-average peak detector
 *		with half-window 15 and threshold 8.5. The FFT itself (a
 *		power-of-two DIT transform) is a leaf numerical routine,
 *		not a component in its own right.
 *
 *---------------------------------------------------------------*/

import (
	"math"
	"math/cmplx"

	"github.com/charmbracelet/log"
)

// RACHFFTPeak is one detected spectral peak.
type RACHFFTPeak struct {
	Position int64
	Bin      int
}

// RACHFFT is the companion sliding-FFT peak detector.
type RACHFFT struct {
	size       int
	step       int
	window     []float64
	threshold  float64
	avgHalfWin int

	carry []Sample
	pos   int64
	log   *log.Logger
}

// NewRACHFFT constructs the block with its standard parameters:
// 512-point FFT, 50% overlap (step = size/RACHFFTOverlap),
// Blackman-Harris window, half-window 15, threshold 8.5.
func NewRACHFFT() *RACHFFT {
	size := RACHFFTSize
	f := &RACHFFT{
		size:       size,
		step:       size / RACHFFTOverlap,
		window:     blackmanHarris(size),
		threshold:  RACHFFTThreshold,
		avgHalfWin: RACHFFTAvgHalfWin,
	}
	return f
}

// SetLogger enables the per-peak debug diagnostic. Detections are
// reported only through the returned peaks; the log line is strictly a
// debugging aid.
func (f *RACHFFT) SetLogger(l *log.Logger) { f.log = l }

func blackmanHarris(n int) []float64 {
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n-1)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
	}
	return w
}

// Work feeds a slice of raw samples and returns every detected spectral
// peak (position is the absolute sample index of the start of the FFT
// frame it came from).
func (f *RACHFFT) Work(raw []Sample) []RACHFFTPeak {
	buf := append(f.carry, raw...)

	var peaks []RACHFFTPeak
	i := 0
	for i+f.size <= len(buf) {
		frame := buf[i : i+f.size]
		spectrum := f.spectrum(frame)
		peaks = append(peaks, f.detectPeaks(spectrum, f.pos+int64(i))...)
		i += f.step
	}

	if i < len(buf) {
		f.carry = append([]Sample(nil), buf[i:]...)
	} else {
		f.carry = nil
	}
	f.pos += int64(i)

	return peaks
}

func (f *RACHFFT) spectrum(frame []Sample) []float64 {
	in := make([]complex128, f.size)
	for i, s := range frame {
		in[i] = s.Complex128() * complex(f.window[i], 0)
	}
	out := fft(in)
	mag := make([]float64, len(out))
	for i, c := range out {
		mag[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	return mag
}

// detectPeaks runs a moving-average detector over the spectrum: a bin
// exceeding threshold*avg(neighbors) is a peak.
func (f *RACHFFT) detectPeaks(spectrum []float64, pos int64) []RACHFFTPeak {
	var peaks []RACHFFTPeak
	h := f.avgHalfWin
	for bin := h; bin < len(spectrum)-h; bin++ {
		var sum float64
		for k := -h; k <= h; k++ {
			if k == 0 {
				continue
			}
			sum += spectrum[bin+k]
		}
		avg := sum / float64(2*h)
		if avg > 0 && spectrum[bin] > f.threshold*avg {
			if f.log != nil {
				f.log.Debug("rach fft peak", "pos", pos, "bin", bin)
			}
			peaks = append(peaks, RACHFFTPeak{Position: pos, Bin: bin})
		}
	}
	return peaks
}

// fft is an iterative radix-2 decimation-in-time FFT. len(in) must be a
// power of two (RACHFFTSize = 512 satisfies this).
func fft(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	copy(out, in)
	bitReverse(out)
	for size := 2; size <= n; size *= 2 {
		half := size / 2
		w := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			wn := complex(1, 0)
			for k := 0; k < half; k++ {
				even := out[start+k]
				odd := out[start+k+half] * wn
				out[start+k] = even + odd
				out[start+k+half] = even - odd
				wn *= w
			}
		}
	}
	return out
}

func bitReverse(a []complex128) {
	n := len(a)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
}
