// Package validation checks object descriptions before they enter the
// simulation.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
)

// ErrInvalidSpawn is wrapped by every error this package returns.
var ErrInvalidSpawn = errors.New("invalid spawn")

// MaxObjectNameLen bounds scripting names.
const MaxObjectNameLen = 64

// Object names are scripting identifiers: no spaces or markup.
var validObjectNameChars = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// ValidateObjectName validates and trims a scripting name. The empty name is
// allowed and leaves the object unnamed.
func ValidateObjectName(name string) (string, error) {
	if name == "" {
		return "", nil
	}

	if len(name) > MaxObjectNameLen {
		return "", fmt.Errorf("%w: object name too long: %d characters (max %d)", ErrInvalidSpawn, len(name), MaxObjectNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: object name contains invalid UTF-8 characters", ErrInvalidSpawn)
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: object name cannot be only whitespace", ErrInvalidSpawn)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: object name contains control characters", ErrInvalidSpawn)
		}
	}

	if !validObjectNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("%w: object name %q contains invalid characters (only alphanumeric, hyphens, underscores and dots allowed)", ErrInvalidSpawn, trimmed)
	}

	return trimmed, nil
}

// ValidateGeometry requires positive, finite radii and a non-negative height.
func ValidateGeometry(g entity.Geometry) error {
	radii := []struct {
		name  string
		value float32
	}{
		{"major radius", g.MajorRadius},
		{"bounding circle radius", g.BoundingCircleRadius},
		{"bounding sphere radius", g.BoundingSphereRadius},
	}
	for _, r := range radii {
		if !finite(r.value) || r.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidSpawn, r.name, r.value)
		}
	}
	if !finite(g.Height) || g.Height < 0 {
		return fmt.Errorf("%w: height cannot be negative, got %v", ErrInvalidSpawn, g.Height)
	}
	return nil
}

// ValidatePosition rejects NaN and infinite coordinates.
func ValidatePosition(pos mgl32.Vec3) error {
	for _, c := range pos {
		if !finite(c) {
			return fmt.Errorf("%w: position %v is not finite", ErrInvalidSpawn, pos)
		}
	}
	return nil
}

// ValidateTeam validates a team index. NeutralTeam is allowed.
func ValidateTeam(team int) error {
	if team < entity.NeutralTeam {
		return fmt.Errorf("%w: invalid team %d", ErrInvalidSpawn, team)
	}
	return nil
}

// ValidateObjectSpec runs every check and normalizes the name in place.
func ValidateObjectSpec(spec *entity.ObjectSpec) error {
	name, err := ValidateObjectName(spec.Name)
	if err != nil {
		return err
	}
	if err := ValidateGeometry(spec.Geometry); err != nil {
		return err
	}
	if err := ValidatePosition(spec.Position); err != nil {
		return err
	}
	if !finite(spec.Yaw) {
		return fmt.Errorf("%w: yaw %v is not finite", ErrInvalidSpawn, spec.Yaw)
	}
	if err := ValidateTeam(spec.Team); err != nil {
		return err
	}
	spec.Name = name
	return nil
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
