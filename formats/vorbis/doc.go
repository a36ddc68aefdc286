// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams into audio.Source using
// github.com/jfreymuth/oggvorbis. The decoder already produces float32
// samples in [-1, 1], so reads go straight into the caller's buffer.
package vorbis
