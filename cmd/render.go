package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/prompter/config"
	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/prompter"
	canvasrenderer "github.com/ByLCY/prompter/renderer/canvas"
	"github.com/ByLCY/prompter/script"
)

// renderEpoch anchors offline timestamps; only differences between frames matter.
var renderEpoch = time.Unix(0, 0)

type renderFlags struct {
	out      string
	duration time.Duration
	at       time.Duration
	fps      int
	width    float64
	height   float64
	wrap     string
}

func (a *app) renderCmd() *cobra.Command {
	var (
		src sourceFlags
		f   renderFlags
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render scrolling frames to PNG files",
		Long: `Render scrolling frames to PNG files.

Frames are sampled at --fps from the first frame of playback for --duration,
or a single frame is written at --at.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.load(cmd.Context(), args, src)
			if err != nil {
				return err
			}
			drawn, err := a.render(settings, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 %d 帧：%s\n", drawn, f.out)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&f.out, "out", "o", "frames", "output directory")
	cmd.Flags().DurationVar(&f.duration, "duration", 3*time.Second, "length of the rendered clip")
	cmd.Flags().DurationVar(&f.at, "at", -1, "render a single frame at this playback time")
	cmd.Flags().IntVar(&f.fps, "fps", 0, "frames per second (default render.fps)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "surface width in px (default surface.width)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "surface height in px (default surface.height)")
	cmd.Flags().StringVar(&f.wrap, "wrap", string(layout.WrapGrapheme), "line wrap policy: grapheme or word")
	return cmd
}

// render drives the frame loop with synthetic timestamps and returns the number of
// frames written.
func (a *app) render(settings script.Settings, f renderFlags) (int, error) {
	if f.fps == 0 {
		f.fps = a.cfg.Render.FPS
	}
	if f.fps < config.MinFPS || f.fps > config.MaxFPS {
		return 0, fmt.Errorf("--fps %d 超出范围 [%d, %d]", f.fps, config.MinFPS, config.MaxFPS)
	}
	if f.width <= 0 {
		f.width = a.cfg.Surface.Width
	}
	if f.height <= 0 {
		f.height = a.cfg.Surface.Height
	}

	cr := canvasrenderer.NewRenderer(a.cfg.Font.Family)
	surface, err := canvasrenderer.NewFileSurface(cr, f.out)
	if err != nil {
		return 0, err
	}
	r := prompter.New(settings, prompter.Options{
		Typesetter:          cr,
		Wrap:                layout.ParseWrap(f.wrap),
		ResetOnScriptChange: a.cfg.Scroll.ResetOnScriptChange,
	})
	r.Resize(f.width, f.height)
	r.Play()
	loop := prompter.NewLoop(r, surface, prompter.NewManualSource())

	if f.at >= 0 {
		// The first tick after Play only records its timestamp.
		if _, _, err := r.Tick(renderEpoch); err != nil {
			return 0, fmt.Errorf("排版失败: %w", err)
		}
		if !loop.Step(renderEpoch.Add(f.at)) {
			return 0, errors.New("渲染帧失败")
		}
		return surface.Count(), nil
	}

	interval := prompter.FrameInterval(f.fps)
	frames := int(f.duration / interval)
	for i := 0; i <= frames; i++ {
		loop.Step(renderEpoch.Add(time.Duration(i) * interval))
	}
	drawn, skipped := loop.Stats()
	if drawn == 0 {
		return 0, fmt.Errorf("没有帧被渲染（跳过 %d 帧）", skipped)
	}
	return surface.Count(), nil
}

func (a *app) exportCmd() *cobra.Command {
	var (
		src    sourceFlags
		out    string
		margin float64
		wrap   string
	)
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export a script as a paginated PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.load(cmd.Context(), args, src)
			if err != nil {
				return err
			}
			cr := canvasrenderer.NewRenderer(a.cfg.Font.Family)
			metrics := settings.Metrics()
			res, err := breakForPage(cr, settings, metrics, canvasrenderer.A4Width-2*margin, layout.ParseWrap(wrap))
			if err != nil {
				return err
			}
			data, err := cr.Export(res, canvasrenderer.ExportOptions{
				Title:     settings.Title,
				Margin:    margin,
				GlyphSize: metrics.GlyphSize,
			})
			if err != nil {
				return fmt.Errorf("渲染 PDF 失败: %w", err)
			}
			if err := writeOutput(out, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", out)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "script.pdf", "PDF output path")
	cmd.Flags().Float64Var(&margin, "margin", 72, "page margin in px")
	cmd.Flags().StringVar(&wrap, "wrap", string(layout.WrapWord), "line wrap policy: grapheme or word")
	return cmd
}

// breakForPage lays the script out at a fixed text width.
func breakForPage(ts layout.Typesetter, s script.Settings, m fonts.Metrics, width float64, wrap layout.Wrap) (layout.Result, error) {
	measurer, err := ts.Measurer(m)
	if err != nil {
		return layout.Result{}, fmt.Errorf("获取字体测量失败: %w", err)
	}
	return layout.Break(s.Script, width, measurer, m.LineHeight, layout.WithWrap(wrap)), nil
}

func (a *app) layoutCmd() *cobra.Command {
	var (
		src   sourceFlags
		debug string
		width float64
		wrap  string
	)
	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Print the wrapped lines of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.load(cmd.Context(), args, src)
			if err != nil {
				return err
			}
			if width <= 0 {
				width = a.cfg.Surface.Width
			}
			cr := canvasrenderer.NewRenderer(a.cfg.Font.Family)
			metrics := settings.Metrics()
			measurer, err := cr.Measurer(metrics)
			if err != nil {
				return fmt.Errorf("获取字体测量失败: %w", err)
			}
			res := layout.Break(settings.Script, layout.MaxWidthFor(width), measurer, metrics.LineHeight,
				layout.WithWrap(layout.ParseWrap(wrap)))

			if debug != "" {
				if err := os.MkdirAll(filepath.Dir(debug), 0o755); err != nil {
					return fmt.Errorf("创建调试目录失败: %w", err)
				}
				if err := layout.WriteDebugJSON(res, measurer, debug); err != nil {
					return fmt.Errorf("输出调试 JSON 失败: %w", err)
				}
			}
			w := cmd.OutOrStdout()
			for i, line := range res.Lines {
				fmt.Fprintf(w, "%4d  %s\n", i+1, line)
			}
			fmt.Fprintf(w, "共 %d 行，行高 %g，总高 %g\n", res.LineCount(), res.LineHeight, res.Height())
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&debug, "debug-json", "", "write layout debug JSON to this path")
	cmd.Flags().Float64Var(&width, "width", 0, "surface width in px (default surface.width)")
	cmd.Flags().StringVar(&wrap, "wrap", string(layout.WrapGrapheme), "line wrap policy: grapheme or word")
	return cmd
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
