// Package cmd wires the prompter command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ByLCY/prompter/config"
	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/store"
)

var version = "dev"

// app holds per-invocation state shared by subcommands.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      config.Config
	closeLog func()
}

func newApp() *app {
	return &app{v: viper.New()}
}

// Execute runs the root command.
func Execute() error {
	a := newApp()
	defer a.close()
	return a.rootCmd().Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "prompter",
		Short:             "A teleprompter scroll engine",
		Long:              `Scroll scripts at a steady speed in the terminal, render them to PNG frames or PDF, and manage saved scripts over a REST API.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .prompter/config.yaml or ~/.config/prompter/config.yaml)")
	root.PersistentFlags().Bool("debug", false, "write debug log to log.file")
	root.PersistentFlags().String("db", "", "SQLite file holding saved scripts")
	_ = a.v.BindPFlag("log.debug", root.PersistentFlags().Lookup("debug"))
	_ = a.v.BindPFlag("db_path", root.PersistentFlags().Lookup("db"))

	root.AddCommand(
		a.initCmd(),
		a.playCmd(),
		a.renderCmd(),
		a.exportCmd(),
		a.layoutCmd(),
		a.serveCmd(),
		a.scriptsCmd(),
	)
	return root
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	_ = a.v.BindEnv("log.debug", config.EnvPrefix+"_LOG_DEBUG", config.EnvPrefix+"_DEBUG")
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	a.cfg = cfg
	if cfg.Log.Debug && a.closeLog == nil {
		closeLog, err := log.Init(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		a.closeLog = closeLog
		log.Info(log.CatConfig, "prompter starting", "version", version, "config", a.v.ConfigFileUsed())
	}
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("打开脚本库 %s 失败: %w", a.cfg.DBPath, err)
	}
	return s, nil
}

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfgFile
			if path == "" {
				path = config.LocalPath
			}
			if !force && fileExists(path) {
				return fmt.Errorf("配置文件 %s 已存在，使用 --force 覆盖", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入配置：%s\n", path)
			return nil
		},
	}
	// init must run before a config exists, so it skips config loading.
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
