// pkg/config/template.go
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTemplate is returned for a name, or an inherits target, that
	// is not defined.
	ErrUnknownTemplate = errors.New("unknown physics template")
	// ErrTemplateCycle is returned when templates inherit from each other in a loop.
	ErrTemplateCycle = errors.New("physics template inheritance cycle")
)

// Names of the temporary weapons fired when a vehicle falls onto something.
const (
	DefaultBuildingCrashWeapon    = "VehicleCrashesIntoBuildingWeapon"
	DefaultNonBuildingCrashWeapon = "VehicleCrashesIntoNonBuildingWeapon"
)

// PhysicsTemplate is the per-object-type physics tuning as written by a
// designer. Frictions are fractions per SECOND and the fall threshold is a
// HEIGHT; both are converted when the template is turned into module data.
// A nil pointer means "not set", leaving the built-in per-frame default.
type PhysicsTemplate struct {
	Name     string `yaml:"-"`
	Inherits string `yaml:"inherits,omitempty"`

	Mass                float32  `yaml:"mass"`
	ForwardFriction     *float32 `yaml:"forwardFriction,omitempty"`
	LateralFriction     *float32 `yaml:"lateralFriction,omitempty"`
	ZFriction           *float32 `yaml:"zFriction,omitempty"`
	AerodynamicFriction *float32 `yaml:"aerodynamicFriction,omitempty"`

	CenterOfMassOffset      float32 `yaml:"centerOfMassOffset"`
	AllowBouncing           bool    `yaml:"allowBouncing"`
	AllowCollideForce       bool    `yaml:"allowCollideForce"`
	KillWhenRestingOnGround bool    `yaml:"killWhenRestingOnGround"`

	MinFallHeightForDamage *float32 `yaml:"minFallHeightForDamage,omitempty"`
	FallHeightDamageFactor float32  `yaml:"fallHeightDamageFactor"`
	PitchRollYawFactor     float32  `yaml:"pitchRollYawFactor"`

	VehicleCrashesIntoBuildingWeapon    string `yaml:"vehicleCrashesIntoBuildingWeapon"`
	VehicleCrashesIntoNonBuildingWeapon string `yaml:"vehicleCrashesIntoNonBuildingWeapon"`
}

// DefaultPhysicsTemplate returns the tuning every template starts from.
func DefaultPhysicsTemplate() *PhysicsTemplate {
	return &PhysicsTemplate{
		Name:                                "Default",
		Mass:                                1.0,
		AllowCollideForce:                   true,
		FallHeightDamageFactor:              1.0,
		PitchRollYawFactor:                  2.0,
		VehicleCrashesIntoBuildingWeapon:    DefaultBuildingCrashWeapon,
		VehicleCrashesIntoNonBuildingWeapon: DefaultNonBuildingCrashWeapon,
	}
}

// Validate rejects values the physics core cannot use.
func (t *PhysicsTemplate) Validate() error {
	if !(t.Mass > 0) {
		return fmt.Errorf("%w: template %q mass must be positive, got %v", ErrInvalidConfig, t.Name, t.Mass)
	}
	return nil
}

// TemplateSet is a resolved collection of physics templates.
type TemplateSet struct {
	templates map[string]*PhysicsTemplate
}

// LoadTemplates reads and resolves a YAML template file.
func LoadTemplates(path string) (*TemplateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes a YAML document mapping template names to tuning
// blocks. A block may name another with "inherits"; it then starts as a deep
// copy of that template and only its own keys override it.
func ParseTemplates(data []byte) (*TemplateSet, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}

	r := &resolver{
		raw:      raw,
		resolved: make(map[string]*PhysicsTemplate, len(raw)),
		visiting: make(map[string]bool),
	}
	for _, name := range sortedKeys(raw) {
		if _, err := r.resolve(name, nil); err != nil {
			return nil, err
		}
	}
	return &TemplateSet{templates: r.resolved}, nil
}

// Get returns a copy of the named template.
func (s *TemplateSet) Get(name string) (*PhysicsTemplate, error) {
	t, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	out := &PhysicsTemplate{}
	if err := copier.CopyWithOption(out, t, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy template %q: %w", name, err)
	}
	return out, nil
}

// Names lists the templates in sorted order.
func (s *TemplateSet) Names() []string {
	return sortedKeys(s.templates)
}

type resolver struct {
	raw      map[string]yaml.Node
	resolved map[string]*PhysicsTemplate
	visiting map[string]bool
}

func (r *resolver) resolve(name string, chain []string) (*PhysicsTemplate, error) {
	if t, ok := r.resolved[name]; ok {
		return t, nil
	}
	chain = append(chain, name)
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: %s", ErrTemplateCycle, strings.Join(chain, " -> "))
	}
	node, ok := r.raw[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var header struct {
		Inherits string `yaml:"inherits"`
	}
	if err := node.Decode(&header); err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}

	base := DefaultPhysicsTemplate()
	if header.Inherits != "" {
		parent, err := r.resolve(header.Inherits, chain)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		base = parent
	}

	// The parent's pointer fields must not be shared, or decoding the child
	// would write through them.
	t := &PhysicsTemplate{}
	if err := copier.CopyWithOption(t, base, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("template %q: copy parent: %w", name, err)
	}
	if err := node.Decode(t); err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	t.Name = name
	t.Inherits = header.Inherits
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.resolved[name] = t
	return t, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
