package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/prompter"
	"github.com/ByLCY/prompter/renderer/term"
	"github.com/ByLCY/prompter/script"
	"github.com/ByLCY/prompter/store"
	"github.com/ByLCY/prompter/watch"
)

func (a *app) playCmd() *cobra.Command {
	var (
		src       sourceFlags
		noWatch   bool
		saveSpd   bool
		autoStart bool
	)
	cmd := &cobra.Command{
		Use:   "play [file]",
		Short: "Scroll a script in the terminal",
		Long: `Scroll a script in the terminal.

Keys: space play/pause, +/- speed, up/down seek one line, m mirror, f focus line,
s font size, r or Home rewind, q or Esc quit.

When the file changes on disk its settings replace the live ones, so speed and
toggle changes made with the keys are lost. --save-speed rewrites the whole
.prompt header and drops comments in it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.load(cmd.Context(), args, src)
			if err != nil {
				return err
			}
			var reload func() (script.Settings, error)
			path := ""
			if len(args) == 1 {
				path = args[0]
				reload = func() (script.Settings, error) { return a.load(cmd.Context(), args, src) }
			}
			if noWatch {
				reload = nil
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("初始化终端失败: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("初始化终端失败: %w", err)
			}
			final, err := a.play(cmd.Context(), screen, settings, path, reload, autoStart)
			screen.Fini()
			if err != nil {
				return err
			}

			if !saveSpd || final.Speed == settings.Speed {
				return nil
			}
			switch {
			case src.id != 0:
				err = a.withStore(func(ctx context.Context, st *store.Store) error {
					_, err := st.Update(ctx, src.id, store.Fields{Speed: &final.Speed})
					return err
				})
			case isPromptFile(path):
				err = saveSpeed(path, final.Speed)
			default:
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已保存速度 %g\n", final.Speed)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the file when it changes")
	cmd.Flags().BoolVar(&saveSpd, "save-speed", false, "write the final speed back to the .prompt file or saved script")
	cmd.Flags().BoolVar(&autoStart, "start", false, "start scrolling immediately")
	return cmd
}

// play runs the terminal player until the user quits or ctx ends, and returns the
// settings in effect at exit.
func (a *app) play(ctx context.Context, screen tcell.Screen, settings script.Settings,
	path string, reload func() (script.Settings, error), autoStart bool) (script.Settings, error) {
	surface := term.NewSurface(screen, settings.Title)
	r := prompter.New(settings, prompter.Options{
		Typesetter:          term.CellTypesetter{},
		ResetOnScriptChange: a.cfg.Scroll.ResetOnScriptChange,
		OnFinish:            func(r *prompter.ScrollRenderer) { r.Pause() },
	})
	ctrl := term.NewController(r, surface, a.cfg.Play.SpeedStep)
	ctrl.Resize()
	if autoStart {
		r.Play()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		for {
			ev := screen.PollEvent()
			if ev == nil || !ctrl.Handle(ev) {
				return
			}
		}
	}()

	if reload != nil {
		w, err := watch.New(watch.Config{Path: path})
		if err != nil {
			return settings, err
		}
		changes, err := w.Start()
		if err != nil {
			return settings, err
		}
		defer func() { _ = w.Stop() }()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-changes:
					next, err := reload()
					if err != nil {
						log.Warn(log.CatWatch, "reload failed", "path", path, "error", err)
						continue
					}
					r.SetSettings(next)
					surface.SetTitle(next.Title)
					ctrl.Resize()
					log.Info(log.CatWatch, "script reloaded", "path", path)
				}
			}
		}()
	}

	loop := prompter.NewLoop(r, surface, prompter.NewTickerSource(prompter.FrameInterval(a.cfg.Render.FPS)))
	err := loop.Run(ctx)
	drawn, skipped := loop.Stats()
	log.Debug(log.CatLoop, "player stopped", "drawn", drawn, "skipped", skipped)
	if err != nil && !errors.Is(err, context.Canceled) {
		return r.Settings(), err
	}
	return r.Settings(), nil
}
