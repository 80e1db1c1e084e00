package marionette

import (
	"errors"
	"os"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// Tests read pixels from ebiten images, which is only possible while a game
// is running, so the whole suite executes inside a minimal RunGame loop.

var errRegularTermination = errors.New("regular termination")

type testGame struct {
	m    *testing.M
	code int
}

func (g *testGame) Update() error {
	g.code = g.m.Run()
	return errRegularTermination
}

func (g *testGame) Draw(screen *ebiten.Image) {}

func (g *testGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func TestMain(m *testing.M) {
	g := &testGame{m: m}
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errRegularTermination) {
		panic(err)
	}
	os.Exit(g.code)
}
