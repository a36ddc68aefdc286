// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"

	"github.com/ik5/rtmix/arena"
	"github.com/ik5/rtmix/utils"
)

const (
	// EchoSeconds is the longest delay an Echo can hold.
	EchoSeconds = 2

	MaxEchoFeedback = 0.95

	DefaultEchoFeedback = 0.5
	DefaultEchoMix      = 0.5
	DefaultEchoDelayMs  = 250
)

// Echo is a feedback delay over a stereo circular buffer.
type Echo struct {
	buf        []float32 // interleaved stereo
	frames     int
	write      int
	delay      int
	feedback   float32
	mix        float32
	sampleRate int
}

// EchoSamples is the number of float32 values an Echo carves at sampleRate.
func EchoSamples(sampleRate int) int { return sampleRate * EchoSeconds * 2 }

// Allocate carves the delay buffer. Calling it again is a no-op.
func (e *Echo) Allocate(mem *arena.Arena, sampleRate int) error {
	if e.buf != nil {
		return nil
	}

	buf, err := mem.Float32s(EchoSamples(sampleRate))
	if err != nil {
		return fmt.Errorf("echo: %w", err)
	}

	e.buf = buf
	e.frames = sampleRate * EchoSeconds
	e.sampleRate = sampleRate
	e.SetDelay(DefaultEchoDelayMs, DefaultEchoFeedback)
	e.SetMix(DefaultEchoMix)

	return nil
}

func (e *Echo) Allocated() bool { return e.buf != nil }

// Delay is the current delay in frames.
func (e *Echo) Delay() int { return e.delay }

// Feedback is the current, clamped, feedback.
func (e *Echo) Feedback() float32 { return e.feedback }

// SetDelay sets the delay time and feedback. The delay is clamped to the
// buffer and feedback to [0, MaxEchoFeedback].
func (e *Echo) SetDelay(delayMs, feedback float32) {
	if e.frames == 0 {
		return
	}

	d := int(delayMs * float32(e.sampleRate) / 1000)
	e.delay = min(max(d, 1), e.frames-1)
	e.feedback = utils.Clamp(feedback, 0, MaxEchoFeedback)
}

// SetMix sets how much of the delayed signal is added to the input.
func (e *Echo) SetMix(mix float32) {
	e.mix = utils.Clamp(mix, 0, 1)
}

func (e *Echo) Reset() {
	clear(e.buf)
	e.write = 0
}

// Process runs the echo over interleaved stereo buf in place.
func (e *Echo) Process(buf []float32) {
	if e.buf == nil {
		return
	}

	for i := 0; i+1 < len(buf); i += 2 {
		read := e.write - e.delay
		if read < 0 {
			read += e.frames
		}

		w, r := e.write*2, read*2
		dl, dr := e.buf[r], e.buf[r+1]
		inL, inR := buf[i], buf[i+1]

		buf[i] = inL + dl*e.mix
		buf[i+1] = inR + dr*e.mix
		e.buf[w] = flush(inL + dl*e.feedback)
		e.buf[w+1] = flush(inR + dr*e.feedback)

		e.write++
		if e.write == e.frames {
			e.write = 0
		}
	}
}
