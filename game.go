package main

import (
	"fmt"
	"log/slog"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs/system"
	"github.com/milk9111/grapplehook/prefabs"
	"github.com/milk9111/grapplehook/sim"
)

type Game struct {
	sim     *sim.Sim
	render  *system.RenderSystem
	proj    *system.Projection
	watcher *prefabs.Watcher
	pauseUI *ebitenui.UI

	tuning string
	debug  bool
	paused bool
	quit   bool

	log *slog.Logger
}

func NewGame(opts sim.ProcessOptions, debug bool, lg *slog.Logger) (*Game, error) {
	proj := system.NewProjection()
	proj.Width, proj.Height = common.BaseWidth, common.BaseHeight

	s, err := sim.New(sim.Options{
		Level:      opts.Level,
		Tuning:     opts.Tuning,
		Input:      system.NewInputSystem(proj),
		Projection: proj,
		Logger:     lg,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{
		sim:    s,
		render: system.NewRenderSystem(proj),
		proj:   proj,
		tuning: opts.Tuning,
		debug:  debug,
		log:    lg,
	}
	g.pauseUI = NewPauseUI(g)

	if opts.HotReload && opts.PrefabDir != "" {
		w, err := prefabs.NewWatcher(opts.PrefabDir)
		if err != nil {
			lg.Warn("hot reload disabled", "dir", opts.PrefabDir, "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}
	g.pollWatcher()

	if g.paused {
		g.pauseUI.Update()
		return nil
	}
	g.sim.Step()
	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for _, name := range g.watcher.Drain() {
		if err := g.sim.Reload(name); err != nil {
			g.log.Error("hot reload failed", "file", name, "err", err)
		}
	}
	select {
	case err, ok := <-g.watcher.Errors:
		if ok {
			g.log.Warn("watcher error", "err", err)
		}
	default:
	}
}

func (g *Game) reloadTuning() {
	if err := g.sim.Reload(g.tuning); err != nil {
		g.log.Error("reload failed", "err", err)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.render.Draw(g.sim.World, screen)
	if g.debug {
		system.DrawPhysicsDebug(g.sim.Physics.Space(), g.proj, screen)
		system.DrawGrappleDebug(g.sim.World, screen)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.2f", ebiten.ActualFPS()), common.BaseWidth-90, 4)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}
