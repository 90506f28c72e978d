package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ByLCY/prompter/renderer"
)

// FileSurface 将每一帧栅格化后写入目录，文件名为 frame-00000.png 递增。
type FileSurface struct {
	renderer *Renderer
	dir      string
	next     int
}

var _ renderer.Surface = (*FileSurface)(nil)

// NewFileSurface creates dir if needed.
func NewFileSurface(r *Renderer, dir string) (*FileSurface, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
	}
	return &FileSurface{renderer: r, dir: dir}, nil
}

// Draw implements renderer.Surface.
func (s *FileSurface) Draw(frame *renderer.Frame) error {
	data, err := s.renderer.Render(frame)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%05d.png", s.next))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	s.next++
	return nil
}

// Count returns how many frames were written.
func (s *FileSurface) Count() int { return s.next }
