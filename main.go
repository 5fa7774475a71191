package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/logger"
	"github.com/milk9111/grapplehook/prefabs"
	"github.com/milk9111/grapplehook/sim"
)

func main() {
	var debug, baseMonitor bool
	opts, err := sim.ParseOptions("grapplehook", os.Args[1:], func(fs *flag.FlagSet) {
		fs.BoolVar(&debug, "debug", false, "draw physics shapes and controller state")
		fs.BoolVar(&baseMonitor, "m", false, "use base monitor instead of primary (for multi-monitor setups)")
	})
	if err != nil {
		log.Fatal(err)
	}

	logger.Init(logger.Config{Level: opts.LogLevel, Format: opts.LogFormat})
	prefabs.SetDir(opts.PrefabDir)

	if baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("grapplehook")
	ebiten.SetTPS(int(common.TickRate))

	game, err := NewGame(opts, debug, logger.L())
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
}
