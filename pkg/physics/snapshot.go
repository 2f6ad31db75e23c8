// pkg/physics/snapshot.go
package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/xfer"
)

// snapshotVersion 2 dropped the unused position snapshot.
const snapshotVersion uint8 = 2

var _ xfer.Snapshotter = (*Behavior)(nil)

// CRC folds the persisted state into a checksum visitor.
func (b *Behavior) CRC(x xfer.Xfer) error {
	return b.Xfer(x)
}

// Xfer saves or loads the persisted state in its fixed field order.
func (b *Behavior) Xfer(x xfer.Xfer) error {
	version := snapshotVersion
	if err := x.Version(&version, snapshotVersion); err != nil {
		return fmt.Errorf("physics version: %w", err)
	}

	turning := int32(b.turning)
	ignore := uint32(b.ignoreCollisionsWith)
	flags := int32(b.flags)
	current := uint32(b.currentOverlap)
	previous := uint32(b.previousOverlap)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"yaw rate", func() error { return x.Real(&b.yawRate) }},
		{"roll rate", func() error { return x.Real(&b.rollRate) }},
		{"pitch rate", func() error { return x.Real(&b.pitchRate) }},
		{"acceleration", func() error { return x.Coord3D(&b.accel) }},
		{"previous acceleration", func() error { return x.Coord3D(&b.prevAccel) }},
		{"velocity", func() error { return x.Coord3D(&b.vel) }},
		{"legacy position", func() error {
			if version >= 2 {
				return nil
			}
			var unused mgl32.Vec3
			return x.Coord3D(&unused)
		}},
		{"turning", func() error { return x.Int(&turning) }},
		{"ignore collisions with", func() error { return x.ObjectID(&ignore) }},
		{"flags", func() error { return x.Int(&flags) }},
		{"mass", func() error { return x.Real(&b.mass) }},
		{"current overlap", func() error { return x.ObjectID(&current) }},
		{"previous overlap", func() error { return x.ObjectID(&previous) }},
		{"motive force expiry", func() error { return x.UnsignedInt(&b.motiveForceExpires) }},
		{"extra bounciness", func() error { return x.Real(&b.extraBounciness) }},
		{"extra friction", func() error { return x.Real(&b.extraFriction) }},
		{"velocity magnitude", func() error { return x.Real(&b.velMag) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("physics %s: %w", s.name, err)
		}
	}

	if x.Mode() == xfer.ModeLoad {
		b.turning = TurningType(turning)
		b.ignoreCollisionsWith = entity.ObjectID(ignore)
		b.flags = Flags(flags)
		b.currentOverlap = entity.ObjectID(current)
		b.previousOverlap = entity.ObjectID(previous)
	}
	return nil
}

// LoadPostProcess rebuilds the state that is not persisted.
func (b *Behavior) LoadPostProcess() {
	b.OnObjectCreated()
	b.asleep = false
}
