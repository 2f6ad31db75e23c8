// pkg/physics/crush.go
package physics

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/damage"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/geom"
)

// CrushTarget is the point on a victim a crusher is trying to run over.
type CrushTarget int

const (
	NoCrush CrushTarget = iota
	TotalCrush
	FrontEndCrush
	BackEndCrush
)

func (c CrushTarget) String() string {
	switch c {
	case TotalCrush:
		return "total"
	case FrontEndCrush:
		return "front"
	case BackEndCrush:
		return "back"
	default:
		return "none"
	}
}

const (
	perpTolerance  float32 = 0.15
	crushOvershoot float32 = 2.25
)

// CrushInput is the 2D geometry of one crusher/victim pair.
type CrushInput struct {
	CrusherPos mgl32.Vec3
	// CrusherDir is the crusher's unit facing direction on the ground plane.
	CrusherDir mgl32.Vec3
	VictimPos  mgl32.Vec3
	VictimDir  mgl32.Vec3
	// Offset is the distance from the victim's center to its front and back
	// crush points, half its major radius.
	Offset       float32
	FrontCrushed bool
	BackCrushed  bool
}

func (in CrushInput) point(target CrushTarget) mgl32.Vec3 {
	off := mgl32.Vec3{in.VictimDir[0] * in.Offset, in.VictimDir[1] * in.Offset, 0}
	switch target {
	case FrontEndCrush:
		return in.VictimPos.Add(off)
	case BackEndCrush:
		return in.VictimPos.Sub(off)
	default:
		return in.VictimPos
	}
}

// toPoint is the flattened vector from the crusher to a crush point.
func (in CrushInput) toPoint(target CrushTarget) mgl32.Vec3 {
	return geom.Flatten(in.point(target).Sub(in.CrusherPos))
}

// perp is the distance from a crush point to the crusher's travel ray.
func (in CrushInput) perp(v mgl32.Vec3) float32 {
	along := v[0]*in.CrusherDir[0] + v[1]*in.CrusherDir[1]
	px := along*in.CrusherDir[0] - v[0]
	py := along*in.CrusherDir[1] - v[1]
	return math32.Sqrt(px*px + py*py)
}

func perpsLogicallyEqual(a, b float32) bool {
	return math32.Abs(a-b) <= perpTolerance
}

// ClassifyCrushTarget picks the crush point the crusher is heading for: the
// one nearest its travel ray, with near-ties going to the closer point.
// When the winner ties with the center, the center comparison is made first,
// even if it also ties with the opposite end.
func ClassifyCrushTarget(in CrushInput) CrushTarget {
	switch {
	case in.FrontCrushed && in.BackCrushed:
		return NoCrush
	case in.FrontCrushed:
		return BackEndCrush
	case in.BackCrushed:
		return FrontEndCrush
	}

	frontVec := in.toPoint(FrontEndCrush)
	backVec := in.toPoint(BackEndCrush)
	centerVec := in.toPoint(TotalCrush)

	front := in.perp(frontVec)
	back := in.perp(backVec)
	center := in.perp(centerVec)

	switch {
	case front <= center && front <= back:
		if perpsLogicallyEqual(front, center) {
			if frontVec.Len() < centerVec.Len() {
				return FrontEndCrush
			}
			return TotalCrush
		}
		if perpsLogicallyEqual(front, back) {
			if frontVec.Len() < backVec.Len() {
				return FrontEndCrush
			}
			return BackEndCrush
		}
		return FrontEndCrush

	case back <= center && back <= front:
		if perpsLogicallyEqual(back, center) {
			if backVec.Len() < centerVec.Len() {
				return BackEndCrush
			}
			return TotalCrush
		}
		if perpsLogicallyEqual(back, front) {
			if backVec.Len() < frontVec.Len() {
				return BackEndCrush
			}
			return FrontEndCrush
		}
		return BackEndCrush

	default:
		if perpsLogicallyEqual(center, front) {
			if centerVec.Len() < frontVec.Len() {
				return TotalCrush
			}
			return FrontEndCrush
		}
		if perpsLogicallyEqual(center, back) {
			if centerVec.Len() < backVec.Len() {
				return TotalCrush
			}
			return BackEndCrush
		}
		return TotalCrush
	}
}

// CrushTriggered reports whether the crusher has just passed the target
// point without overshooting it by more than 1.5 offsets.
func CrushTriggered(in CrushInput, target CrushTarget) bool {
	if target == NoCrush {
		return false
	}
	v := in.toPoint(target)
	dot := in.CrusherDir[0]*v[0] + in.CrusherDir[1]*v[1]
	distSqr := v[0]*v[0] + v[1]*v[1]
	return dot < 0 && distSqr < crushOvershoot*in.Offset*in.Offset
}

// CheckForOverlapCollision reports whether this object and other should pass
// through each other instead of bouncing, crushing other when the geometry
// says the crusher has rolled over one of its crush points.
func (b *Behavior) CheckForOverlapCollision(other *entity.Object) bool {
	// A stationary object never starts a crush.
	if geom.IsVerySmall3D(b.vel) {
		return false
	}

	me := b.obj
	selfCrushingOther := me.CanCrushOrSquish(other, entity.TestCrushOnly)
	selfBeingCrushed := other.CanCrushOrSquish(me, entity.TestCrushOnly)

	if selfCrushingOther && selfBeingCrushed {
		err := fmt.Errorf("objects %d (crusher %d, crushable %d) and %d (crusher %d, crushable %d) can crush each other",
			me.ID(), me.CrusherLevel(), me.CrushableLevel(),
			other.ID(), other.CrusherLevel(), other.CrushableLevel())
		b.env.Logger.Error(b.logCtx(), "reciprocal crush configuration", err)
		return false
	}

	// Being crushed: stay passive and let the crusher roll over us.
	if selfBeingCrushed {
		return true
	}
	if !selfCrushingOther {
		return false
	}

	b.AddOverlap(other)
	if !b.WasPreviouslyOverlapped(other) {
		// Zero damage, only to trigger any hit reaction on the victim.
		other.AttemptDamage(damage.Info{
			Type:      damage.Crush,
			DeathType: damage.DeathCrushed,
			SourceID:  uint32(me.ID()),
		})
	}

	body := other.Body()
	if body == nil {
		return true
	}

	in := CrushInput{
		CrusherPos:   me.Position(),
		CrusherDir:   me.UnitDirection2D(),
		VictimPos:    other.Position(),
		VictimDir:    other.UnitDirection2D(),
		Offset:       other.Geometry().MajorRadius / 2,
		FrontCrushed: body.FrontCrushed(),
		BackCrushed:  body.BackCrushed(),
	}
	target := ClassifyCrushTarget(in)
	if !CrushTriggered(in, target) {
		return true
	}

	switch target {
	case TotalCrush:
		body.SetFrontCrushed(true)
		body.SetBackCrushed(true)
	case FrontEndCrush:
		body.SetFrontCrushed(true)
	case BackEndCrush:
		body.SetBackCrushed(true)
	}

	other.AttemptDamage(damage.Info{
		Type:      damage.Crush,
		DeathType: damage.DeathCrushed,
		SourceID:  uint32(me.ID()),
		Amount:    damage.HugeAmount,
	})

	ev := event.NewObjectEvent(event.ObjectCrushed, target.String(), uint32(other.ID()), uint32(me.ID()), other.Position())
	b.env.Events.Publish(ev)
	b.env.Logger.Debug(b.logCtx(), "crushed object",
		"crusher", me.ID(), "victim", other.ID(), "target", target.String())
	return true
}
