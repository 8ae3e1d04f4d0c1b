package media

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// Duration returns the length in seconds of the PCM WAV file at path.
func Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%q is not a valid wav file", path)
	}
	dec.ReadInfo()
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("find pcm data in %q: %w", path, err)
	}

	bytesPerSec := int(dec.SampleRate) * int(dec.NumChans) * int(dec.BitDepth) / 8
	if bytesPerSec == 0 {
		return 0, fmt.Errorf("%q has an empty wav format header", path)
	}
	return float64(dec.PCMSize) / float64(bytesPerSec), nil
}
