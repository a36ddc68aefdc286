// SPDX-License-Identifier: EPL-2.0

// Package audio holds the streaming primitives used to turn encoded files
// into PCM a mixing session can load.
//
//   - Source is a pull stream of interleaved float32 samples in [-1, 1].
//   - Decoder builds a Source from an io.Reader; Registry maps format keys
//     (file extensions) to decoders.
//   - Resampler converts a Source to another sample rate with cubic
//     interpolation.
//   - Downmixer folds any channel count into mono or stereo.
//
// A typical chain, as used by the ingest package:
//
//	src, _ := reg.Decode(audio.FormatOf(path), f)
//	res := audio.NewResampler(src, 48000)
//	st, _ := audio.NewDownmixer(res, 2)
//	n, err := st.ReadSamples(buf)
//
// Every ReadSamples returns the number of float32 values written, not
// frames. io.EOF, possibly together with a final batch of samples, ends
// the stream. Buffers are reused between calls so steady state reading
// does not allocate.
package audio
