package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/server"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the script REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if a.closeLog == nil {
				// serve owns no screen, so logs go to stderr.
				defer log.InitWriter(cmd.ErrOrStderr())()
				log.SetMinLevel(log.LevelInfo)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "API 监听于 http://%s\n", addr)
			return server.Serve(ctx, addr, server.NewHandler(st).Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
