// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes integer PCM AIFF files into audio.Source using
// github.com/go-audio/aiff.
//
// 8, 16, 24 and 32 bit samples are scaled into [-1, 1). The decoder needs
// to seek, so plain readers are buffered in memory first.
package aiff
