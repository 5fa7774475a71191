package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/milk9111/grapplehook/grapple"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// GrappleSpec is the on-disk shape of grapple tuning. Fields left out keep
// their defaults.
type GrappleSpec struct {
	Grapple grapple.Config `yaml:"grapple"`
}

// LoadGrappleConfig reads tuning from filename, layered over the defaults.
func LoadGrappleConfig(filename string) (grapple.Config, error) {
	data, err := Load(filename)
	if err != nil {
		return grapple.Config{}, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return ParseGrappleConfig(data)
}

func ParseGrappleConfig(data []byte) (grapple.Config, error) {
	spec := GrappleSpec{Grapple: grapple.DefaultConfig()}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return grapple.Config{}, fmt.Errorf("prefabs: unmarshal grapple config: %w", err)
	}
	cfg, err := spec.Grapple.Validate()
	if err != nil {
		return grapple.Config{}, fmt.Errorf("prefabs: grapple config: %w", err)
	}
	return cfg, nil
}

// LevelSpec lays out static blocks and the prefabs placed on them.
type LevelSpec struct {
	Name     string          `yaml:"name"`
	Gravity  float64         `yaml:"gravity"`
	Blocks   []BlockSpec     `yaml:"blocks"`
	Entities []PlacementSpec `yaml:"entities"`
}

type BlockSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Depth    float64 `yaml:"depth"`
	Friction float64 `yaml:"friction"`
}

type PlacementSpec struct {
	Prefab string   `yaml:"prefab"`
	X      *float64 `yaml:"x"`
	Y      *float64 `yaml:"y"`
	Z      *float64 `yaml:"z"`
}

func LoadLevelSpec(filename string) (LevelSpec, error) {
	spec, err := LoadSpec[LevelSpec](filename)
	if err != nil {
		return LevelSpec{}, err
	}
	for i, b := range spec.Blocks {
		if b.Width <= 0 || b.Height <= 0 {
			return LevelSpec{}, fmt.Errorf("prefabs: %s: block %d has no extent", filename, i)
		}
	}
	for i, p := range spec.Entities {
		if strings.TrimSpace(p.Prefab) == "" {
			return LevelSpec{}, fmt.Errorf("prefabs: %s: entity %d has no prefab", filename, i)
		}
	}
	return spec, nil
}

// YAMLColor accepts "#rrggbb", "#rrggbbaa" or an SVG color name.
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	if named, ok := colornames.Map[strings.ToLower(strings.TrimSpace(value.Value))]; ok {
		c.Color = named
		return nil
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
