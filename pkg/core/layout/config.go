package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/erlayout/pkg/core/er"
	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// Level names a configuration preset.
type Level uint8

// Tier levels, ordered by the resources they spend.
const (
	Light Level = iota
	Medium
	Heavy
)

// Levels lists every tier in ascending order.
var Levels = []Level{Light, Medium, Heavy}

// String returns the lower-case tier name.
func (l Level) String() string {
	switch l {
	case Light:
		return "light"
	case Medium:
		return "medium"
	case Heavy:
		return "heavy"
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel parses a tier name. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "medium":
		return Medium, nil
	case "heavy":
		return Heavy, nil
	}
	return 0, errs.New(errs.ErrCodeInvalidTier, "unknown tier %q (want light, medium or heavy)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Tier selection thresholds.
const (
	// HeavyNodeThreshold is the E+A+R count above which the Heavy preset is used.
	HeavyNodeThreshold = 170
	// HeavyAttributeThreshold is the attributes-per-entity count above which
	// the Heavy preset is used regardless of total size.
	HeavyAttributeThreshold = 20
	// MediumNodeThreshold is the E+A+R count above which at least Medium is used.
	MediumNodeThreshold = 90

	// maxEscalatedIterations caps iteration counts produced by Escalate.
	maxEscalatedIterations = 2000
)

// Config is the full set of tunables for one layout call. It is built once,
// passed through every stage, and never read from package state.
type Config struct {
	Level Level `json:"level" toml:"-"`

	// SpringIterations is the force-relaxation iteration budget.
	SpringIterations int `json:"spring_iterations" toml:"spring_iterations"`
	// SafeGap is added to the sum of footprints to get a spring's rest length.
	SafeGap float64 `json:"safe_gap" toml:"safe_gap"`
	// RepulsionFactor scales the truncated repulsion between overlapping nodes.
	RepulsionFactor float64 `json:"repulsion_factor" toml:"repulsion_factor"`
	// CollisionPadding is the minimum clearance between skeleton footprints.
	CollisionPadding float64 `json:"collision_padding" toml:"collision_padding"`
	// GlobalSepPadding is the minimum clearance between any two node radii
	// in the final separation pass.
	GlobalSepPadding float64 `json:"global_sep_padding" toml:"global_sep_padding"`

	// NodeSeparation is handed to the external skeleton primitive.
	NodeSeparation float64 `json:"node_separation" toml:"node_separation"`
	// PrimitiveIterations bounds the external skeleton primitive.
	PrimitiveIterations int `json:"primitive_iterations" toml:"primitive_iterations"`

	// UseExternalSkeleton delegates skeleton placement to the injected
	// SkeletonProvider instead of the built-in chain heuristic.
	UseExternalSkeleton bool `json:"use_external_skeleton" toml:"use_external_skeleton"`
	// UseLightRefinement runs a second, low-temperature relaxation after
	// post-processing.
	UseLightRefinement bool `json:"use_light_refinement" toml:"use_light_refinement"`
}

// Preset returns the default configuration for a tier.
func Preset(l Level) Config {
	switch l {
	case Heavy:
		return Config{
			Level:               Heavy,
			SpringIterations:    900,
			SafeGap:             1.3,
			RepulsionFactor:     0.35,
			CollisionPadding:    0.4,
			GlobalSepPadding:    0.2,
			NodeSeparation:      1.0,
			PrimitiveIterations: 500,
			UseExternalSkeleton: true,
			UseLightRefinement:  true,
		}
	case Medium:
		return Config{
			Level:               Medium,
			SpringIterations:    600,
			SafeGap:             1.0,
			RepulsionFactor:     0.30,
			CollisionPadding:    0.3,
			GlobalSepPadding:    0.15,
			NodeSeparation:      0.75,
			PrimitiveIterations: 300,
			UseLightRefinement:  true,
		}
	default:
		return Config{
			Level:               Light,
			SpringIterations:    300,
			SafeGap:             0.7,
			RepulsionFactor:     0.25,
			CollisionPadding:    0.2,
			GlobalSepPadding:    0.12,
			NodeSeparation:      0.5,
			PrimitiveIterations: 200,
		}
	}
}

// SelectLevel picks the tier for a graph of the given size.
//
//	Heavy   N > 170 or M > 20
//	Medium  N > 90 or R > E
//	Light   otherwise
//
// where N = E+A+R and M is the largest attribute count on one entity.
func SelectLevel(s er.Stats) Level {
	n := s.Nodes()
	switch {
	case n > HeavyNodeThreshold || s.MaxAttributes > HeavyAttributeThreshold:
		return Heavy
	case n > MediumNodeThreshold || s.Relationships > s.Entities:
		return Medium
	}
	return Light
}

// Select returns the preset for a graph of the given size.
func Select(s er.Stats) Config {
	return Preset(SelectLevel(s))
}

// Escalate returns cfg with its spacing and iteration budgets scaled by
// 1 + 0.3·round. Round 0 returns cfg unchanged. The repulsion factor is kept.
func Escalate(cfg Config, round int) Config {
	if round <= 0 {
		return cfg
	}
	scale := 1 + 0.3*float64(round)
	cfg.SafeGap *= scale
	cfg.CollisionPadding *= scale
	cfg.GlobalSepPadding *= scale
	cfg.NodeSeparation *= scale
	cfg.SpringIterations = scaleIter(cfg.SpringIterations, scale)
	cfg.PrimitiveIterations = scaleIter(cfg.PrimitiveIterations, scale)
	return cfg
}

func scaleIter(n int, scale float64) int {
	return min(int(math.Round(float64(n)*scale)), maxEscalatedIterations)
}

// Validate rejects configurations that cannot drive the pipeline.
func (c Config) Validate() error {
	switch {
	case c.SpringIterations <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "spring_iterations must be positive, got %d", c.SpringIterations)
	case c.SafeGap < 0, c.CollisionPadding < 0, c.GlobalSepPadding < 0, c.NodeSeparation < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "gaps and paddings must not be negative")
	case c.RepulsionFactor <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "repulsion_factor must be positive, got %v", c.RepulsionFactor)
	case c.UseExternalSkeleton && c.PrimitiveIterations <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "primitive_iterations must be positive when the external skeleton is enabled")
	}
	return nil
}
