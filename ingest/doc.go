// SPDX-License-Identifier: EPL-2.0

// Package ingest turns encoded audio files into session assets.
//
// A file is decoded with the matching formats decoder, resampled to the
// session rate, folded down to mono or stereo and converted to 16-bit PCM
// before it is copied into the session's memory region.
//
//	h, err := ingest.LoadFile(session, "sfx/door.ogg")
//	if err != nil {
//		return err
//	}
//	session.Play(h, 1, 0)
package ingest
