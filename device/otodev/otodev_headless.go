// SPDX-License-Identifier: EPL-2.0

//go:build headless

package otodev

import (
	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
)

// Name is the registry key of this driver.
const Name = "oto"

// Open always fails in headless builds.
func Open(cfg device.Config, log *zap.Logger) (device.Device, error) {
	return nil, device.ErrUnavailable
}
