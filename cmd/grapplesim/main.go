// Command grapplesim runs a scripted scenario against the arena without a
// window and prints the player's state frame by frame.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/milk9111/grapplehook/ecs/system"
	"github.com/milk9111/grapplehook/logger"
	"github.com/milk9111/grapplehook/prefabs"
	"github.com/milk9111/grapplehook/sim"
)

func main() {
	var (
		script     string
		frames     int
		traceEvery int
		list       bool
	)
	opts, err := sim.ParseOptions("grapplesim", os.Args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&script, "script", "arrive", "scenario script name or path")
		fs.IntVar(&frames, "frames", 0, "frame cap; 0 uses the script's max_frames")
		fs.IntVar(&traceEvery, "trace-every", 1, "print a trace line every n frames; 0 prints only the last")
		fs.BoolVar(&list, "list", false, "list embedded scenario scripts and exit")
	})
	if err != nil {
		log.Fatal(err)
	}

	if list {
		fmt.Println(strings.Join(prefabs.Scripts(), "\n"))
		return
	}

	logger.Init(logger.Config{Level: opts.LogLevel, Format: opts.LogFormat, Output: os.Stderr})
	prefabs.SetDir(opts.PrefabDir)
	lg := logger.L()

	src, err := prefabs.LoadScript(script)
	if err != nil {
		log.Fatalf("load script: %v", err)
	}
	scenario, err := system.NewScenarioSystem(script, src, lg)
	if err != nil {
		log.Fatalf("compile script: %v", err)
	}

	s, err := sim.New(sim.Options{
		Level:  opts.Level,
		Tuning: opts.Tuning,
		Input:  scenario,
		Logger: lg,
	})
	if err != nil {
		log.Fatal(err)
	}

	limit := scenario.MaxFrames()
	if frames > 0 {
		limit = frames
	}

	var last sim.FrameTrace
	for n := 0; n < limit && !scenario.Done(); n++ {
		s.Step()
		last = s.Trace()
		if traceEvery > 0 && n%traceEvery == 0 {
			fmt.Println(last)
		}
	}
	if traceEvery <= 0 {
		fmt.Println(last)
	}
	lg.Info("scenario finished", "script", script, "frames", scenario.Frame(), "stopped", scenario.Done())
}
