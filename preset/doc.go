// SPDX-License-Identifier: EPL-2.0

// Package preset reads effects rack layouts from YAML and applies them to
// a session.
//
//	name: cave
//	effects:
//	  - slot: 0
//	    type: lowpass
//	    cutoff: 4000
//	  - slot: 1
//	    type: reverb
//	    room_size: 0.9
//	    wet: 0.45
//
// A few layouts ship with the package; see Builtins.
package preset
