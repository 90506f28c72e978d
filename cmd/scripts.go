package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/prompter/dsl"
	"github.com/ByLCY/prompter/script"
	"github.com/ByLCY/prompter/store"
)

func (a *app) scriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Manage saved scripts",
	}
	cmd.AddCommand(a.scriptsListCmd(), a.scriptsShowCmd(), a.scriptsCreateCmd(), a.scriptsDeleteCmd())
	return cmd
}

// withStore opens the script store for the duration of fn.
func (a *app) withStore(fn func(ctx context.Context, st *store.Store) error) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, st)
}

func (a *app) scriptsListCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(ctx context.Context, st *store.Store) error {
				scripts, err := st.List(ctx, skip, limit)
				if err != nil {
					return err
				}
				if len(scripts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "没有保存的脚本")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tSPEED\tFONT\tCREATED")
				for _, sc := range scripts {
					fmt.Fprintf(tw, "%d\t%s\t%g\t%s\t%s\n", sc.ID, sc.Title, sc.Speed, sc.FontSize,
						sc.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "number of scripts to skip")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultLimit, "maximum number of scripts")
	return cmd
}

func (a *app) scriptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved script as a .prompt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(ctx context.Context, st *store.Store) error {
				sc, err := st.Get(ctx, id)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("脚本 %d 不存在", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatPrompt(sc.Settings()))
				return nil
			})
		},
	}
}

func (a *app) scriptsCreateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Save a .prompt or text file as a new script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := parseData(data)
			if err != nil {
				return err
			}
			settings, err := loadFile(args[0], bound)
			if err != nil {
				return err
			}
			return a.withStore(func(ctx context.Context, st *store.Store) error {
				sc, err := st.Create(ctx, store.FieldsFrom(settings))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已保存脚本 %d：%s\n", sc.ID, sc.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "JSON data bound to ${...} placeholders before saving")
	return cmd
}

func (a *app) scriptsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(ctx context.Context, st *store.Store) error {
				if err := st.Delete(ctx, id); errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("脚本 %d 不存在", id)
				} else if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已删除脚本 %d\n", id)
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("无效的脚本 id %q", raw)
	}
	return id, nil
}

// formatPrompt renders settings as a .prompt file.
func formatPrompt(s script.Settings) string {
	return dsl.Format(dsl.New(s, nil))
}
