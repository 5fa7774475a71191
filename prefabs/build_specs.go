package prefabs

import "gopkg.in/yaml.v3"

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type PhysicsBodyComponentSpec struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Depth      float64 `yaml:"depth"`
	Mass       float64 `yaml:"mass"`
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
	Static     bool    `yaml:"static"`
}

type ActorComponentSpec struct {
	Name      string    `yaml:"name"`
	Facing    []float64 `yaml:"facing"`
	EyeHeight float64   `yaml:"eye_height"`
}

type HealthComponentSpec struct {
	Max     float64 `yaml:"max"`
	Current float64 `yaml:"current"`
}

type LocomotionComponentSpec struct {
	MoveSpeed          float64 `yaml:"move_speed"`
	DepthSpeed         float64 `yaml:"depth_speed"`
	JumpSpeed          float64 `yaml:"jump_speed"`
	RagdollImpactSpeed float64 `yaml:"ragdoll_impact_speed"`
	RagdollFrames      int     `yaml:"ragdoll_frames"`
	GetUpFrames        int     `yaml:"get_up_frames"`
	// Disabled lists interrupt states that start switched off.
	Disabled []string `yaml:"disabled"`
}

type AnimationDefComponentSpec struct {
	FrameCount int     `yaml:"frame_count"`
	FPS        float64 `yaml:"fps"`
	Loop       bool    `yaml:"loop"`
}

type AnimationComponentSpec struct {
	Defs map[string]AnimationDefComponentSpec `yaml:"defs"`
}

type CameraComponentSpec struct {
	TargetName string  `yaml:"target"`
	Zoom       float64 `yaml:"zoom"`
	Smoothness float64 `yaml:"smoothness"`
}

type LineRenderComponentSpec struct {
	Width     float32    `yaml:"width"`
	Color     *YAMLColor `yaml:"color"`
	AntiAlias bool       `yaml:"anti_alias"`
}

type RespawnComponentSpec struct {
	Delay int `yaml:"delay"`
	// Point defaults to the spawn transform.
	Point []float64 `yaml:"point"`
}
