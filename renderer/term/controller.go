package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ByLCY/prompter/prompter"
	"github.com/ByLCY/prompter/script"
)

// DefaultSpeedStep is the speed change per +/- key press.
const DefaultSpeedStep = 10

// Controller translates key and resize events into renderer updates.
type Controller struct {
	renderer  *prompter.ScrollRenderer
	surface   *Surface
	speedStep float64
}

// NewController binds a renderer to the surface it is drawn on.
func NewController(r *prompter.ScrollRenderer, s *Surface, speedStep float64) *Controller {
	if speedStep <= 0 {
		speedStep = DefaultSpeedStep
	}
	return &Controller{renderer: r, surface: s, speedStep: speedStep}
}

// Resize pushes the current terminal geometry to the renderer.
func (c *Controller) Resize() {
	c.renderer.Resize(c.surface.Geometry(c.renderer.Settings().Metrics()))
}

// Handle reacts to one terminal event. It returns false when the player should exit.
func (c *Controller) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		c.Resize()
	case *tcell.EventKey:
		return c.handleKey(ev)
	}
	return true
}

func (c *Controller) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		c.renderer.SeekBy(-c.renderer.Settings().Metrics().LineHeight)
	case tcell.KeyDown:
		c.renderer.SeekBy(c.renderer.Settings().Metrics().LineHeight)
	case tcell.KeyHome:
		c.renderer.Reset()
	case tcell.KeyRune:
		return c.handleRune(ev.Rune())
	}
	return true
}

func (c *Controller) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		c.renderer.Toggle()
	case '+', '=':
		c.update(func(s script.Settings) script.Settings { return s.WithSpeed(c.speedStep) })
	case '-', '_':
		c.update(func(s script.Settings) script.Settings { return s.WithSpeed(-c.speedStep) })
	case 'm':
		c.update(func(s script.Settings) script.Settings { s.MirrorMode = !s.MirrorMode; return s })
	case 'f':
		c.update(func(s script.Settings) script.Settings { s.ShowFocusLine = !s.ShowFocusLine; return s })
	case 's':
		c.update(script.Settings.NextFontSize)
		c.Resize()
	case 'r':
		c.renderer.Reset()
	}
	return true
}

func (c *Controller) update(fn func(script.Settings) script.Settings) {
	c.renderer.SetSettings(fn(c.renderer.Settings()))
}
