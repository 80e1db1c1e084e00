// Package marionette is an interactive art piece for [Ebitengine]: text
// phrases hang from rigid physics strings over a dark stage, swing and fall
// when clicked, spark on impact, flip the palette, morph into a polygonal
// tunnel flythrough, and crossfade into a fluid simulation stirred by an
// organic emitter.
//
// The package is a library plus a runnable show (demos/exhibit). The whole
// sequence is skippable at any instant; skipping jumps straight to the
// terminal fluid scene and tears down everything else.
//
// # Quick start
//
// The simplest way to run the piece is [Run], which creates a window and
// game loop for you:
//
//	marionette.Run(marionette.DefaultConfig(), marionette.RunConfig{
//		Title: "marionette", Width: 1280, Height: 720,
//	})
//
// For full control, build a [Show] and drive it as your own
// [ebiten.Game]:
//
//	show := marionette.NewShow(marionette.DefaultConfig())
//	// show.Update() / show.Draw(screen) / show.Layout(w, h)
//
// # Structure
//
// A [Context] carries the shared physics space, configuration, random
// source, performance monitor, and asset loader; every component receives
// it at construction. The [Director] owns the scene sequence and the
// skip interrupt; [HangingText], [GroundManager], and [SparkPool] are the
// 2D stage; [Tunnel] and [Fluid] are the 3D and field-solver phases.
//
// Physics uses [cp] (Chipmunk), tweening uses [gween], palettes use
// [go-colorful], and noise uses [go-perlin].
//
// [Ebitengine]: https://ebitengine.org
// [cp]: https://github.com/jakecoffman/cp
// [gween]: https://github.com/tanema/gween
// [go-colorful]: https://github.com/lucasb-eyer/go-colorful
// [go-perlin]: https://github.com/aquilax/go-perlin
package marionette
