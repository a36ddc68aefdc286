// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 streams into audio.Source using
// github.com/hajimehoshi/go-mp3. Output is always stereo at the stream's
// own sample rate; mono files come out with both channels equal.
package mp3
