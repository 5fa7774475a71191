package system

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/logger"
)

const scenarioDispatchScript = `
if __phase == "update" {
	update(__engine, __state, __frame)
}
`

// defaultScenarioFrames bounds scripts that do not set max_frames.
const defaultScenarioFrames = 600

// ScenarioSystem drives the player's Input from a tengo script. The script
// defines update(engine, state, frame) and may set max_frames. It is the
// headless stand-in for InputSystem.
type ScenarioSystem struct {
	name      string
	compiled  *tengo.Compiled
	stateData *tengo.Map

	frame     int
	maxFrames int
	stopped   bool

	held     map[string]bool
	prevHeld map[string]bool
	aim      common.Vec3
	kill     bool

	log *slog.Logger
}

func NewScenarioSystem(name string, src []byte, lg *slog.Logger) (*ScenarioSystem, error) {
	if lg == nil {
		lg = logger.L()
	}
	script := tengo.NewScript([]byte(string(src) + "\n" + scenarioDispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__frame", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: compile: %w", name, err)
	}

	s := &ScenarioSystem{
		name:      name,
		compiled:  compiled,
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
		maxFrames: defaultScenarioFrames,
		held:      map[string]bool{},
		prevHeld:  map[string]bool{},
		log:       lg.With("system", "scenario", "script", name),
	}

	// evaluate globals once to pick up max_frames
	if err := s.run("init", &tengo.ImmutableMap{Value: map[string]tengo.Object{}}); err != nil {
		return nil, fmt.Errorf("scenario %s: init: %w", name, err)
	}
	if compiled.IsDefined("max_frames") {
		if n := compiled.Get("max_frames").Int(); n > 0 {
			s.maxFrames = n
		}
	}
	return s, nil
}

// Done reports whether the script stopped or ran out of frames.
func (s *ScenarioSystem) Done() bool {
	return s.stopped || s.frame >= s.maxFrames
}

func (s *ScenarioSystem) Frame() int { return s.frame }

func (s *ScenarioSystem) MaxFrames() int { return s.maxFrames }

func (s *ScenarioSystem) Stage() ecs.Stage { return ecs.StageInput }

func (s *ScenarioSystem) Update(w *ecs.World) {
	if w == nil || s.Done() {
		return
	}
	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return
	}
	input, ok := ecs.Get(w, player, component.InputComponent.Kind())
	if !ok {
		return
	}

	s.kill = false
	if err := s.run("update", s.buildEngine(w, player)); err != nil {
		s.log.Error("script update failed", "frame", s.frame, "err", err)
		s.stopped = true
		return
	}

	*input = component.Input{
		Forward:         s.held["forward"],
		Back:            s.held["back"],
		Left:            s.held["left"],
		Right:           s.held["right"],
		Jump:            s.held["jump"],
		JumpPressed:     s.held["jump"] && !s.prevHeld["jump"],
		GrappleHeld:     s.held["grapple"],
		GrapplePressed:  s.held["grapple"] && !s.prevHeld["grapple"],
		GrappleReleased: !s.held["grapple"] && s.prevHeld["grapple"],
		Aim:             s.aim,
		Kill:            s.kill,
	}

	for k := range s.prevHeld {
		delete(s.prevHeld, k)
	}
	for k, v := range s.held {
		s.prevHeld[k] = v
	}
	s.frame++
}

func (s *ScenarioSystem) run(phase string, engine *tengo.ImmutableMap) error {
	if err := s.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := s.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := s.compiled.Set("__state", s.stateData); err != nil {
		return err
	}
	if err := s.compiled.Set("__frame", s.frame); err != nil {
		return err
	}
	return s.compiled.Run()
}

var scenarioButtons = map[string]bool{
	"forward": true, "back": true, "left": true, "right": true,
	"jump": true, "grapple": true,
}

func (s *ScenarioSystem) buildEngine(w *ecs.World, player ecs.Entity) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["hold"] = &tengo.UserFunction{Name: "hold", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if !scenarioButtons[name] {
			return tengo.FalseValue, nil
		}
		down := true
		if len(args) > 1 {
			down = !args[1].IsFalsy()
		}
		s.held[name] = down
		return tengo.TrueValue, nil
	}}

	values["release"] = &tengo.UserFunction{Name: "release", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		delete(s.held, strings.TrimSpace(objectAsString(args[0])))
		return tengo.TrueValue, nil
	}}

	values["aim"] = &tengo.UserFunction{Name: "aim", Value: func(args ...tengo.Object) (tengo.Object, error) {
		v, ok := vecFromArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		s.aim = v
		return tengo.TrueValue, nil
	}}

	// aim_at points the aim from the player's eye to a world point.
	values["aim_at"] = &tengo.UserFunction{Name: "aim_at", Value: func(args ...tengo.Object) (tengo.Object, error) {
		target, ok := vecFromArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		viewer := ecsViewer{w: w, e: player}
		s.aim = target.Sub(viewer.AimOrigin())
		return tengo.TrueValue, nil
	}}

	values["kill"] = &tengo.UserFunction{Name: "kill", Value: func(args ...tengo.Object) (tengo.Object, error) {
		s.kill = true
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		s.stopped = true
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		s.log.Info(strings.Join(parts, " "), "frame", s.frame)
		return tengo.UndefinedValue, nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		t, ok := ecs.Get(w, player, component.TransformComponent.Kind())
		if !ok {
			return vecObject(common.Zero3), nil
		}
		return vecObject(t.Vec()), nil
	}}

	values["velocity"] = &tengo.UserFunction{Name: "velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		pb, ok := ecs.Get(w, player, component.PhysicsBodyComponent.Kind())
		if !ok || pb.Body == nil {
			return vecObject(common.Zero3), nil
		}
		v := pb.Body.Velocity()
		return vecObject(common.V3(v.X, v.Y, pb.VZ)), nil
	}}

	values["grappling"] = &tengo.UserFunction{Name: "grappling", Value: func(args ...tengo.Object) (tengo.Object, error) {
		g, ok := ecs.Get(w, player, component.GrapplerComponent.Kind())
		if ok && g.State.Active {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["anim_state"] = &tengo.UserFunction{Name: "anim_state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		g, ok := ecs.Get(w, player, component.GrapplerComponent.Kind())
		if !ok {
			return &tengo.String{Value: ""}, nil
		}
		return &tengo.String{Value: g.State.Anim.String()}, nil
	}}

	values["last_error"] = &tengo.UserFunction{Name: "last_error", Value: func(args ...tengo.Object) (tengo.Object, error) {
		g, ok := ecs.Get(w, player, component.GrapplerComponent.Kind())
		if !ok {
			return &tengo.String{Value: ""}, nil
		}
		return &tengo.String{Value: g.LastError}, nil
	}}

	values["state"] = &tengo.UserFunction{Name: "state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		loco, ok := ecs.Get(w, player, component.LocomotionComponent.Kind())
		if !ok {
			return &tengo.String{Value: ""}, nil
		}
		return &tengo.String{Value: loco.State}, nil
	}}

	values["grounded"] = &tengo.UserFunction{Name: "grounded", Value: func(args ...tengo.Object) (tengo.Object, error) {
		loco, ok := ecs.Get(w, player, component.LocomotionComponent.Kind())
		if ok && loco.Grounded {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func vecFromArgs(args []tengo.Object) (common.Vec3, bool) {
	if len(args) == 1 {
		if arr, ok := args[0].(*tengo.Array); ok {
			args = arr.Value
		}
	}
	if len(args) < 2 {
		return common.Zero3, false
	}
	var c [3]float64
	for i := 0; i < len(args) && i < 3; i++ {
		f, ok := objectAsFloat(args[i])
		if !ok {
			return common.Zero3, false
		}
		c[i] = f
	}
	return common.V3(c[0], c[1], c[2]), true
}

func vecObject(v common.Vec3) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{
		&tengo.Float{Value: v.X},
		&tengo.Float{Value: v.Y},
		&tengo.Float{Value: v.Z},
	}}
}

func objectAsFloat(obj tengo.Object) (float64, bool) {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, true
	case *tengo.Int:
		return float64(v.Value), true
	default:
		return 0, false
	}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
