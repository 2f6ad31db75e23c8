// Package damage defines the damage taxonomy exchanged between the physics
// core and object bodies.
package damage

// Type classifies the source of damage.
type Type int

const (
	Explosion Type = iota
	Crush
	Falling
	Unresistable
)

// String returns the damage type name.
func (t Type) String() string {
	switch t {
	case Explosion:
		return "EXPLOSION"
	case Crush:
		return "CRUSH"
	case Falling:
		return "FALLING"
	case Unresistable:
		return "UNRESISTABLE"
	default:
		return "UNKNOWN"
	}
}

// ParseType converts a configuration string into a Type.
func ParseType(s string) (Type, bool) {
	switch s {
	case "EXPLOSION", "":
		return Explosion, true
	case "CRUSH":
		return Crush, true
	case "FALLING":
		return Falling, true
	case "UNRESISTABLE":
		return Unresistable, true
	}
	return Explosion, false
}

// DeathType selects the death animation/behavior if the damage kills.
type DeathType int

const (
	DeathNormal DeathType = iota
	DeathSplatted
	DeathCrushed
)

// HugeAmount is large enough to kill anything.
const HugeAmount float32 = 999999.0

// Info describes one damage application.
type Info struct {
	Type      Type
	DeathType DeathType
	SourceID  uint32
	Amount    float32
}

// Result reports what the body actually did with the damage.
type Result struct {
	ActualDealt float32
	Clipped     float32
}
