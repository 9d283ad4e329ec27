package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// seekSample converts seconds to a sample offset clamped to [0, length].
func seekSample(rate beep.SampleRate, seconds float64, length int) int {
	n := rate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

// rewindIfFinished seeks st back to the start when it has been played to the end.
// A source that was moved back by a seek keeps its position.
func rewindIfFinished(st beep.StreamSeeker) error {
	if st.Position() < st.Len() {
		return nil
	}
	return st.Seek(0)
}
