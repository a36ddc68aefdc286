// SPDX-License-Identifier: EPL-2.0

// Package wav decodes integer PCM WAV files into audio.Source streams and
// writes 16-bit PCM WAV files. Both directions are built on
// github.com/go-audio/wav.
//
// 8, 16, 24 and 32 bit integer PCM are supported; float and compressed
// WAV files are rejected with ErrUnsupportedEncoding. Input that cannot
// seek is buffered in memory because the RIFF container is walked by
// chunk.
package wav
