// Package analysis looks at telemetry series in the frequency domain, for
// example the sloshing period of a released dam.
package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// Spectrum is the one-sided power spectrum of a real series. Freq is in
// cycles per unit of the sample interval.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum transforms data sampled every dt. The mean is removed first
// so the constant component does not swamp the plot.
func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	if len(data) < 4 {
		return Spectrum{}, ErrShortSeries
	}
	if !(dt > 0) {
		return Spectrum{}, errors.New("analysis: sample interval must be positive")
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)

	n := float64(len(centered))
	s := Spectrum{Freq: make([]float64, len(coeff)), Power: make([]float64, len(coeff))}
	for i, c := range coeff {
		a := cmplx.Abs(c)
		s.Freq[i] = fft.Freq(i) / dt
		s.Power[i] = a * a / n
	}
	return s, nil
}

// Dominant returns the strongest non-zero frequency and its power.
func (s Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freq[i], s.Power[i]
		}
	}
	return freq, power
}
