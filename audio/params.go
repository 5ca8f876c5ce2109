package audio

import (
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livepush/transport"
)

// Opus-constrained parameter limits.
const (
	// MinBitrateKbps is the lowest usable Opus bitrate.
	MinBitrateKbps = 6
	// MaxBitrateKbps is the highest Opus bitrate.
	MaxBitrateKbps = 510
)

// supportedSampleRates are the capture rates the encoder accepts.
var supportedSampleRates = map[int]bool{
	8000:  true,
	12000: true,
	16000: true,
	24000: true,
	44100: true,
	48000: true,
}

// ValidateParams checks encoder parameters before they reach the transport.
func ValidateParams(p transport.Params) error {
	if !supportedSampleRates[p.SampleRateHz] {
		return fmt.Errorf("unsupported sample rate: %d Hz", p.SampleRateHz)
	}
	if p.BitrateKbps < MinBitrateKbps || p.BitrateKbps > MaxBitrateKbps {
		return fmt.Errorf("bitrate out of range: %d kbps (must be %d-%d)",
			p.BitrateKbps, MinBitrateKbps, MaxBitrateKbps)
	}
	return nil
}

// BandwidthForSampleRate maps a capture sample rate to the Opus bandwidth
// the encoder should target.
func BandwidthForSampleRate(sampleRateHz int) opus.Bandwidth {
	switch sampleRateHz {
	case 8000:
		return opus.BandwidthNarrowband
	case 12000:
		return opus.BandwidthMediumband
	case 16000:
		return opus.BandwidthWideband
	case 24000:
		return opus.BandwidthSuperwideband
	case 44100, 48000:
		return opus.BandwidthFullband
	default:
		logrus.WithFields(logrus.Fields{
			"function":    "BandwidthForSampleRate",
			"sample_rate": sampleRateHz,
		}).Warn("Unsupported sample rate, defaulting to fullband")
		return opus.BandwidthFullband
	}
}
