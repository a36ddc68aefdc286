// SPDX-License-Identifier: EPL-2.0

// Package rtmix is a fixed latency audio mixing engine.
//
// A Session owns one memory region handed to New, carves every table it
// needs from it up front, and runs a realtime goroutine that mixes up to
// MaxVoices voices through an effects rack into one period of PCM per
// device write. Control calls such as Play, SetVolume or EnableEffect can
// be made from any goroutine; they never block on the realtime goroutine
// and never allocate.
//
// # Quick Start
//
//	s, err := rtmix.New(make([]byte, 8<<20), device.Config{Driver: "null"})
//	if err != nil {
//		return err
//	}
//	defer s.Shutdown()
//
//	h, err := s.LoadFromMemory(pcm, 1, 48000) // 16-bit little-endian PCM
//	if err != nil {
//		return err
//	}
//	v := s.Play(h, 0.8, 0)
//	s.SetPitch(v, 1.5)
//
// # Voices
//
// Play never fails for a loaded asset: when every voice is busy the active
// voice with the lowest Priority is stolen. A VoiceHandle carries a
// generation, so a handle to a stolen or finished voice goes stale and
// calls made with it do nothing. Valid reports whether a handle still
// names its voice.
//
// # 3D Sound
//
// Play3D voices are attenuated by distance from the listener, panned by
// the listener's orientation and pitch shifted by Doppler. See the spatial
// package.
//
// # Music
//
// Music plays on up to MaxMusicLayers looping layers with their own volume
// bus. Call Update once per frame with the elapsed time to advance layer
// fades and crossfades.
//
// # Effects
//
// The master bus runs through dsp.MaxEffects rack slots in order. Each
// voice's effect send splits its signal between the rack and a direct bus
// that bypasses it. Decoding files into PCM is left to the ingest package.
package rtmix
