// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"github.com/ik5/rtmix/spatial"
	"github.com/ik5/rtmix/utils"
)

// atomicVec3 is read one component at a time. A reader racing a writer may
// see a mix of old and new components for one period.
type atomicVec3 struct {
	x, y, z utils.AtomicFloat32
}

func (a *atomicVec3) Load() spatial.Vec3 {
	return spatial.Vec3{X: a.x.Load(), Y: a.y.Load(), Z: a.z.Load()}
}

func (a *atomicVec3) Store(v spatial.Vec3) {
	a.x.Store(v.X)
	a.y.Store(v.Y)
	a.z.Store(v.Z)
}
