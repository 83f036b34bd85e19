// Command hmdpctl runs operator tasks against the hm-dianping stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "github.com/Baize0412/hm-dianping/configs"
	"github.com/Baize0412/hm-dianping/internal/bootstrap"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/db"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/redis"
	"github.com/Baize0412/hm-dianping/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hmdpctl",
		Short:        "Operator tasks for hm-dianping",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")
	root.AddCommand(newMigrateCmd(), newWarmupCmd(), newNextIDCmd(), newUnlockCmd())
	return root
}

// load reads the environment configuration and builds a logger honoring the
// --log-level flag.
func load(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, bootstrap.NewLogger(cfg.Log), nil
}

func newMigrateCmd() *cobra.Command {
	var down int
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations, or roll back with --down",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Database.MigrationsPath
			}
			database, err := db.NewDatabaseWithConfig(&cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			if down > 0 {
				if err := database.MigrateDown(path, down); err != nil {
					return err
				}
				logger.WithField("steps", down).Info("migrations rolled back")
				return nil
			}
			if err := database.Migrate(path); err != nil {
				return err
			}
			logger.WithField("path", path).Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	cmd.Flags().StringVar(&path, "path", "", "migrations directory (defaults to DB_MIGRATIONS_PATH)")
	return cmd
}

func newWarmupCmd() *cobra.Command {
	var ids []int64
	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Write logical-expiry shop entries ahead of traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			app, err := bootstrap.Connect(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			written, err := app.ShopService.Warmup(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "warmed %d of %d shops\n", written, len(ids))
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "comma-separated shop ids")
	return cmd
}

// withStore connects to Redis only, for commands that never touch Postgres.
func withStore(cmd *cobra.Command, fn func(cfg *config.Config, store *redis.Store) error) error {
	cfg, _, err := load(cmd)
	if err != nil {
		return err
	}
	client, err := redis.NewUniversalClient(&cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(cfg, redis.NewStore(client, ""))
}

func newNextIDCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Draw one id from the global id worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cfg *config.Config, store *redis.Store) error {
				w := redis.NewIDWorker(store, utils.SystemClock{}, cfg.IDGen.Epoch)
				id, err := w.NextID(cmd.Context(), scope)
				if err != nil {
					return err
				}
				at, seq := w.SplitID(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", id, at.UTC().Format(time.RFC3339), seq)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "order", "id scope")
	return cmd
}

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <name>",
		Short: "Release a lock regardless of its holder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cfg *config.Config, store *redis.Store) error {
				if err := redis.NewLocker(store).ForceUnlock(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released lock %q\n", args[0])
				return nil
			})
		},
	}
}
