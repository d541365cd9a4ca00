// Package utils provides small audio-signal helpers shared by the source
// adapters and the streamplay demo's debug telemetry.
package utils

import "math"

// AudioStats summarizes a block of PCM samples.
type AudioStats struct {
	RMS           float64
	Peak          int16
	SilentSamples int
	TotalSamples  int
	SilenceRatio  float64
}

// CalculateRMS computes the root-mean-square level of a block of samples.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// CalculateAudioStats computes RMS, peak, and silence ratio for a block of
// samples against the given silence threshold.
func CalculateAudioStats(samples []int16, silenceThreshold int16) AudioStats {
	stats := AudioStats{TotalSamples: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	var sum float64
	var peak int16
	silent := 0

	for _, s := range samples {
		v := float64(s)
		sum += v * v

		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > peak {
			peak = abs
		}
		if abs <= silenceThreshold {
			silent++
		}
	}

	stats.RMS = math.Sqrt(sum / float64(len(samples)))
	stats.Peak = peak
	stats.SilentSamples = silent
	stats.SilenceRatio = float64(silent) / float64(len(samples))
	return stats
}

// IsSilent reports whether a block of samples should be treated as silence,
// by RMS level and by the proportion of near-zero samples.
func IsSilent(samples []int16, rmsThreshold float64, silenceRatioThreshold float64) bool {
	if len(samples) == 0 {
		return true
	}
	if CalculateRMS(samples) < rmsThreshold {
		return true
	}
	silenceThreshold := int16(rmsThreshold * 0.5)
	return CalculateAudioStats(samples, silenceThreshold).SilenceRatio > silenceRatioThreshold
}

// BytesToInt16LE reinterprets little-endian 16-bit PCM bytes as samples,
// truncating any trailing odd byte.
func BytesToInt16LE(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(raw[i*2]) | int16(raw[i*2+1])<<8
	}
	return samples
}
