package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"trade_journal/internal/modules/concepts/service"
	conceptspg "trade_journal/internal/modules/concepts/service/pg"
	"trade_journal/internal/modules/config"
	"trade_journal/internal/modules/postgres"
	strategysvc "trade_journal/internal/modules/strategy/service"
	strategypg "trade_journal/internal/modules/strategy/service/pg"
	userssvc "trade_journal/internal/modules/users/service"
	userspg "trade_journal/internal/modules/users/service/pg"
	"trade_journal/internal/modules/web"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type env struct {
	cfg *config.Config
	tx  *db.PgTxManager
}

// open читает конфиг и открывает пул; close обязателен.
func open(ctx context.Context) (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger.SetServiceName(cfg.Service.Name + "-ctl")
	if err := logger.Init(cfg.Log.Level); err != nil {
		return nil, err
	}
	tx, err := postgres.NewTxManager(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	return &env{cfg: cfg, tx: tx}, nil
}

func (e *env) close() {
	e.tx.Close()
	logger.Sync()
}

func withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return run(cmd.Context(), e, args)
	}
}

func catalog(e *env) *strategysvc.Catalog {
	return strategysvc.NewCatalog(e.tx, strategypg.NewStrategies())
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
			if err := postgres.Migrate(ctx, e.tx); err != nil {
				return err
			}
			fmt.Println("schema is up to date")
			return nil
		}),
	}
}

func seedConceptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-concepts",
		Short: "Create the default concept library (existing names are kept)",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
			lib := service.NewLibrary(e.tx, conceptspg.NewConcepts())
			created, err := lib.Seed(ctx, service.DefaultConcepts)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded concepts. Created %d new.\n", created)
			return nil
		}),
	}
}

func createUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a journal user",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			u, err := userssvc.NewDirectory(e.tx, userspg.NewUsers()).Create(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created user %q with id %d\n", u.Username, u.ID)
			return nil
		}),
	}
}

func issueTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Print a signed access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "bad user id %q", args[0])
			}
			u, err := userssvc.NewDirectory(e.tx, userspg.NewUsers()).Get(ctx, id)
			if err != nil {
				return errors.Wrapf(err, "user %d", id)
			}
			token, err := web.IssueToken(e.cfg.Auth.JWTSecret, u.ID, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}

func importStrategyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-strategy <file.yaml>...",
		Short: "Create strategies from YAML definitions, one transaction per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			c := catalog(e)
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err == nil {
					var def *strategysvc.Definition
					if def, err = strategysvc.ParseDefinition(data); err == nil {
						created, ierr := c.Import(ctx, def)
						if ierr == nil {
							fmt.Printf("%s: imported %q as %d\n", path, created.Name, created.ID)
							continue
						}
						err = ierr
					}
				}
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		}),
	}
}

func cloneStrategyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone-strategy <id>...",
		Short: "Deep-copy strategies with their sections, steps and images",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, raw := range args {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return errors.Wrapf(err, "bad strategy id %q", raw)
				}
				ids = append(ids, id)
			}

			failed := 0
			for _, res := range catalog(e).Clone(ctx, ids) {
				if res.Err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "strategy %d: clone failed: %v\n", res.SourceID, res.Err)
					continue
				}
				fmt.Printf("strategy %d: cloned as %q (%d)\n", res.SourceID, res.Clone.Name, res.Clone.ID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d clones failed", failed, len(ids))
			}
			return nil
		}),
	}
}

func main() {
	root := &cobra.Command{
		Use:           "journalctl",
		Short:         "Admin tasks for the trading journal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCmd(),
		seedConceptsCmd(),
		createUserCmd(),
		issueTokenCmd(),
		importStrategyCmd(),
		cloneStrategyCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
