package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/prompter/binding"
	"github.com/ByLCY/prompter/dsl"
	"github.com/ByLCY/prompter/script"
	"github.com/ByLCY/prompter/store"
)

// PromptExt marks files with a settings header; anything else is read as plain script text.
const PromptExt = ".prompt"

// sourceFlags selects where a command reads its script from.
type sourceFlags struct {
	id   int64
	data string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.id, "id", 0, "load a saved script by id instead of a file")
	cmd.Flags().StringVar(&f.data, "data", "", "JSON data bound to ${...} placeholders")
}

// load resolves settings from the file argument or the saved script named by --id.
func (a *app) load(ctx context.Context, args []string, f sourceFlags) (script.Settings, error) {
	data, err := parseData(f.data)
	if err != nil {
		return script.Settings{}, err
	}
	switch {
	case f.id != 0 && len(args) > 0:
		return script.Settings{}, errors.New("文件参数与 --id 不能同时使用")
	case f.id != 0:
		st, err := a.openStore()
		if err != nil {
			return script.Settings{}, err
		}
		defer st.Close()
		sc, err := st.Get(ctx, f.id)
		if errors.Is(err, store.ErrNotFound) {
			return script.Settings{}, fmt.Errorf("脚本 %d 不存在", f.id)
		}
		if err != nil {
			return script.Settings{}, err
		}
		s := sc.Settings()
		s.Script = binding.Interpolate(s.Script, data)
		return s, nil
	case len(args) == 1:
		return loadFile(args[0], data)
	default:
		return script.Settings{}, errors.New("需要指定脚本文件或 --id")
	}
}

func parseData(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

// loadFile reads a .prompt file, or a plain text file as a script with default settings.
func loadFile(path string, data any) (script.Settings, error) {
	if !isPromptFile(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return script.Settings{}, fmt.Errorf("无法打开脚本文件 %s: %w", path, err)
		}
		s := script.Defaults()
		s.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s.Script = binding.Interpolate(strings.ReplaceAll(string(raw), "\r\n", "\n"), data)
		return s, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return script.Settings{}, fmt.Errorf("无法打开脚本文件 %s: %w", path, err)
	}
	defer file.Close()
	doc, err := dsl.Parse(file)
	if err != nil {
		return script.Settings{}, fmt.Errorf("解析脚本文件失败: %w", err)
	}
	s, err := doc.Settings(data)
	if err != nil {
		return script.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func isPromptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), PromptExt)
}

// saveSpeed rewrites the speed entry of a .prompt file, keeping the body verbatim.
// The header is reformatted, so comments in it are not kept.
func saveSpeed(path string, speed float64) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	doc, err := dsl.ParseString(string(raw))
	if err != nil {
		return fmt.Errorf("解析脚本文件失败: %w", err)
	}
	doc.SetSpeed(speed)
	if err := os.WriteFile(path, []byte(dsl.Format(doc)), 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
