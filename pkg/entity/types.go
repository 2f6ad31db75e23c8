// pkg/entity/types.go
package entity

import "github.com/go-gl/mathgl/mgl32"

// ObjectID is a weak, registry-resolved handle to an Object. Holders must look
// the object up again before each use; a destroyed object resolves to nil.
type ObjectID uint32

// InvalidID never names an object.
const InvalidID ObjectID = 0

// KindOf is a set of classification tags.
type KindOf uint32

const (
	KindProjectile KindOf = 1 << iota
	KindImmobile
	KindStructure
	KindVehicle
	KindInfantry
	KindDrone
)

// DisabledType is a set of reasons an object is disabled.
type DisabledType uint32

const (
	DisabledHeld DisabledType = 1 << iota
	DisabledUnmanned
	DisabledFreefall
)

// Status is a set of transient object states set by locomotion and AI.
type Status uint32

const (
	StatusBraking Status = 1 << iota
	StatusParachuting
)

// ModelCondition is a set of presentation states the physics layer toggles.
type ModelCondition uint32

const (
	ConditionFreefall ModelCondition = 1 << iota
	ConditionSplatted
)

// Relationship describes how one object regards another.
type Relationship int

const (
	Enemies Relationship = iota
	Neutral
	Allies
)

func (r Relationship) String() string {
	switch r {
	case Allies:
		return "allies"
	case Neutral:
		return "neutral"
	default:
		return "enemies"
	}
}

// NeutralTeam objects are neither allies nor enemies of anyone.
const NeutralTeam = 0

// CrushSquishTest selects which capabilities CanCrushOrSquish checks.
type CrushSquishTest int

const (
	TestCrushOnly CrushSquishTest = iota
	TestSquishOnly
	TestCrushOrSquish
)

// Geometry is the collision extent of an object.
type Geometry struct {
	MajorRadius          float32
	BoundingCircleRadius float32
	BoundingSphereRadius float32
	Height               float32
}

// NewCylinder returns geometry for an upright cylinder.
func NewCylinder(radius, height float32) Geometry {
	half := height / 2
	sphere := radius
	if half > sphere {
		sphere = half
	}
	return Geometry{
		MajorRadius:          radius,
		BoundingCircleRadius: radius,
		BoundingSphereRadius: sphere,
		Height:               height,
	}
}

// CenterPosition returns the volumetric center for an object standing at pos.
func (g Geometry) CenterPosition(pos mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{pos[0], pos[1], pos[2] + g.Height/2}
}
