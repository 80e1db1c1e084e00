// Exhibit — the full interactive piece.
//
// Three phrases hang from the ceiling on physical strings. Click one and it
// falls; the last one detaches and flips the stage from gold-on-dark to
// black-on-white. A morphing tunnel then swallows the stage and hands over
// to a fluid simulation with a floating brain stirring it from inside.
// Press S at any point to jump straight to the fluid.
//
// Demonstrates: the scene director, hanging-text physics, the tunnel
// morph engine, and the fluid solver with its turbulence emitter.
package main

import (
	"flag"
	"log"

	"github.com/phanxgames/marionette"
)

func main() {
	tunnel := flag.Bool("tunnel", false, "start at the tunnel, skipping the phrases")
	hud := flag.Bool("hud", false, "open with the performance overlay visible")
	verbose := flag.Bool("v", false, "log scene and tier changes")
	flag.Parse()

	cfg := marionette.DefaultConfig()
	cfg.StartAtTunnel = *tunnel
	marionette.Verbose = *verbose

	if err := marionette.Run(cfg, marionette.RunConfig{
		Title:   "Marionette",
		Width:   1280,
		Height:  720,
		ShowHUD: *hud,
	}); err != nil {
		log.Fatal(err)
	}
}
