package tts

import (
	"fmt"
	"math"
	"os"
)

// VerifyAudioFile checks that a synthesized file exists and is large
// enough to hold audio.
func VerifyAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("audio file too small (%d bytes)", info.Size())
	}
	return nil
}

// RelativePercent renders a factor around 1.0 as a signed SSML percentage:
// 0.85 -> "-15%", 1.0 -> "+0%", 1.2 -> "+20%". Non-positive factors are
// treated as 1.0.
func RelativePercent(factor float64) string {
	if factor <= 0 {
		factor = 1
	}
	return fmt.Sprintf("%+d%%", int(math.Round((factor-1)*100)))
}
