package sim

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/grapplehook/ecs/system"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
	"github.com/milk9111/grapplehook/prefabs"
)

func useDir(t *testing.T, dir string) {
	t.Helper()
	prev := prefabs.Dir()
	prefabs.SetDir(dir)
	t.Cleanup(func() { prefabs.SetDir(prev) })
}

func newScenarioSim(t *testing.T, script string) (*Sim, *system.ScenarioSystem) {
	t.Helper()
	src, err := prefabs.LoadScript(script)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	scenario, err := system.NewScenarioSystem(script, src, logger.Discard())
	if err != nil {
		t.Fatalf("NewScenarioSystem: %v", err)
	}
	s, err := New(Options{Input: scenario, Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, scenario
}

func TestNewLoadsArena(t *testing.T) {
	useDir(t, "")
	s, err := New(Options{Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Level.Name != "arena" {
		t.Fatalf("level = %q", s.Level.Name)
	}
	tr := s.Trace()
	if tr.Frame != 0 || tr.Grappling || tr.Health != 100 {
		t.Fatalf("initial trace = %s", tr)
	}
	s.Step()
	if s.Trace().Frame != 1 {
		t.Fatal("Step should advance one frame")
	}
}

func TestNewWithoutPlayer(t *testing.T) {
	dir := t.TempDir()
	useDir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("name: empty\nblocks:\n  - {x: 0, y: 0, width: 10, height: 2}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{Level: "empty.yaml", Logger: logger.Discard()})
	if !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("err = %v, want ErrNoPlayer", err)
	}
}

func TestArriveScenario(t *testing.T) {
	useDir(t, "")
	s, scenario := newScenarioSim(t, "arrive")

	sawGrappling := false
	for i := 0; i < 400 && !scenario.Done(); i++ {
		s.Step()
		if s.Trace().Grappling {
			sawGrappling = true
		}
	}
	if !sawGrappling {
		t.Fatal("the player never grappled")
	}
	if !scenario.Done() {
		t.Fatal("the arrive scenario should finish on its own")
	}
	tr := s.Trace()
	if tr.Grappling || tr.Mode == grapple.ModeExternalPhysics {
		t.Fatalf("session should have ended, got %s", tr)
	}
}

func TestDeathScenarioEndsSession(t *testing.T) {
	useDir(t, "")
	s, _ := newScenarioSim(t, "death")

	sawGrappling := false
	for s.World.Frame() < 40 {
		s.Step()
		if s.World.Frame() <= 36 && s.Trace().Grappling {
			sawGrappling = true
		}
	}
	if !sawGrappling {
		t.Fatal("the player should be grappling before the kill")
	}
	tr := s.Trace()
	if tr.Grappling || tr.Health != 0 {
		t.Fatalf("a dead player cannot stay on the rope, got %s", tr)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	useDir(t, dir)
	path := filepath.Join(dir, "grapple.yaml")
	if err := os.WriteFile(path, []byte("grapple:\n  cooldown: 0.75\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(Options{Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Reload("arena.yaml"); err != nil {
		t.Fatalf("non-tuning files are ignored, got %v", err)
	}
	if err := os.WriteFile(path, []byte("grapple:\n  cooldown: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload("grapple.yaml"); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := os.WriteFile(path, []byte("grapple:\n  min_reel_speed: 90\n  max_reel_speed: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload("grapple.yaml"); err == nil {
		t.Fatal("invalid tuning should be rejected")
	}
}
