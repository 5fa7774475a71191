package system

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
)

// InputSystem samples keyboard, mouse and the first gamepad into every
// player-tagged Input component.
type InputSystem struct {
	proj *Projection
}

func NewInputSystem(proj *Projection) *InputSystem {
	return &InputSystem{proj: proj}
}

func (i *InputSystem) Stage() ecs.Stage { return ecs.StageInput }

func (i *InputSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	const stickDeadzone = 0.2

	var in component.Input
	if ebiten.IsFocused() {
		in = i.sample(stickDeadzone)
	}

	cursorX, cursorY := ebiten.CursorPosition()
	ecs.ForEach2(w, component.InputComponent.Kind(), component.PlayerTagComponent.Kind(), func(e ecs.Entity, input *component.Input, _ *component.PlayerTag) {
		aim := in.Aim
		if aim.IsZero() && i.proj != nil {
			if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
				origin := t.Vec()
				if a, ok := ecs.Get(w, e, component.ActorComponent.Kind()); ok {
					origin.Y += a.EyeHeight
				}
				target := i.proj.ToWorld(float64(cursorX), float64(cursorY))
				target.Z = origin.Z
				aim = target.Sub(origin)
			}
		}
		*input = in
		input.Aim = aim
	})
}

func (i *InputSystem) sample(deadzone float64) component.Input {
	in := component.Input{
		Forward:         ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Back:            ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:            ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right:           ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Jump:            ebiten.IsKeyPressed(ebiten.KeySpace),
		JumpPressed:     inpututil.IsKeyJustPressed(ebiten.KeySpace),
		GrappleHeld:     ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		GrapplePressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		GrappleReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		Kill:            inpututil.IsKeyJustPressed(ebiten.KeyK),
	}

	gamepads := ebiten.AppendGamepadIDs(nil)
	if len(gamepads) == 0 {
		return in
	}
	id := gamepads[0]
	lx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	ly := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	in.Left = in.Left || lx < -deadzone
	in.Right = in.Right || lx > deadzone
	in.Forward = in.Forward || ly < -deadzone
	in.Back = in.Back || ly > deadzone

	in.Jump = in.Jump || ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom)
	in.JumpPressed = in.JumpPressed || inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom)

	grapple := ebiten.StandardGamepadButtonFrontBottomRight
	in.GrappleHeld = in.GrappleHeld || ebiten.IsStandardGamepadButtonPressed(id, grapple)
	in.GrapplePressed = in.GrapplePressed || inpututil.IsStandardGamepadButtonJustPressed(id, grapple)
	in.GrappleReleased = in.GrappleReleased || inpututil.IsStandardGamepadButtonJustReleased(id, grapple)

	rx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal)
	ry := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical)
	if math.Hypot(rx, ry) > deadzone {
		// stick Y points down
		in.Aim = common.V3(rx, -ry, 0)
	}
	return in
}
