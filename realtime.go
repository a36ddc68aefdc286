// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/utils"
)

// State is the lifecycle of the realtime goroutine.
type State uint32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

func (s *Session) State() State { return State(s.state.Load()) }

const (
	// cpuWindow is how many periods CPUUsage averages over.
	cpuWindow = 100
	// logEvery throttles repeated write failures.
	logEvery = 100
)

// run is the realtime goroutine. It owns the buses, the output buffer, the
// rack's unit state and each voice's cursor.
func (s *Session) run() {
	defer close(s.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.opts.priority {
		if err := raisePriority(); err != nil {
			s.log.Debug("realtime priority not raised", zap.Error(err))
		}
	}

	budget := s.cfg.PeriodDuration() * cpuWindow
	var busy time.Duration
	n := 0

	for s.State() == StateRunning {
		start := time.Now()
		s.renderPeriod()
		busy += time.Since(start)

		if n++; n == cpuWindow {
			if budget > 0 {
				s.stats.cpu.Store(min(float32(busy)/float32(budget), 1))
			}
			busy, n = 0, 0
		}

		s.write()
	}
}

// renderPeriod mixes, runs the rack, sums the direct bus and converts into
// the output buffer.
func (s *Session) renderPeriod() {
	s.mix()
	s.rack.Process(s.fx)

	for i, d := range s.direct {
		x := s.fx[i] + d
		if !utils.Finite(x) {
			x = 0
		}
		s.fx[i] = x
	}

	switch s.cfg.Format {
	case device.FormatF32LE:
		utils.PutF32LE(s.out, s.fx)
	default:
		utils.PutS16LE(s.out, s.fx)
	}

	s.stats.periods.Add(1)
}

func (s *Session) write() {
	err := s.dev.Write(s.out)
	if err == nil {
		s.stats.framesWritten.Add(uint64(s.cfg.PeriodFrames))
		return
	}

	if errors.Is(err, device.ErrUnderrun) {
		s.stats.underruns.Add(1)
		if perr := s.dev.Prepare(); perr != nil {
			s.log.Warn("device prepare failed", zap.Error(perr))
		}
		return
	}

	if c := s.stats.writeErrors.Add(1); c == 1 || c%logEvery == 0 {
		s.log.Warn("device write failed", zap.Uint64("count", c), zap.Error(err))
	}

	// Keep a failed device from turning the loop into a spin.
	time.Sleep(s.cfg.PeriodDuration())
}
