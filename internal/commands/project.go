package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/audit"
	"github.com/cleared-dev/balancete/internal/balance"
	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/config"
	"github.com/cleared-dev/balancete/internal/journal"
	"github.com/cleared-dev/balancete/internal/ledger"
	"github.com/cleared-dev/balancete/internal/logger"
	"github.com/cleared-dev/balancete/internal/model"
	"github.com/cleared-dev/balancete/internal/reclass"
	"github.com/cleared-dev/balancete/internal/store"
)

// project is an opened balancete project: its configuration, database and
// the services built on them.
type project struct {
	root string // directory holding the configuration file
	cfg  *config.Config
	db   *store.DB
	repo *store.Repository
	log  zerolog.Logger
}

// openProject loads the configuration named by --config and opens its
// database, applying the schema. Logs go to the command's stderr.
func openProject(cmd *cobra.Command, opts *rootOptions) (*project, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	db, err := store.New(store.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cmd.Context()); err != nil {
		db.Close()
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(opts.configPath))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	return &project{
		root: root,
		cfg:  cfg,
		db:   db,
		repo: store.NewRepository(db, log),
		log:  log,
	}, nil
}

func (p *project) Close() error {
	return p.db.Close()
}

func (p *project) aggregator() (*balance.Aggregator, error) {
	tol, err := p.cfg.TrialTolerance()
	if err != nil {
		return nil, err
	}
	loader := ledger.NewLoader(p.repo, p.cfg.Ledger.PageSize, p.log)
	return balance.NewAggregator(p.repo, loader, balance.Options{
		OpeningReferenceType: p.cfg.OpeningReferenceType(),
		Tolerance:            tol,
	}, p.log), nil
}

func (p *project) journal() *journal.Service {
	return journal.NewService(p.repo, p.cfg.OpeningReferenceType(), p.log)
}

func (p *project) reclassifier(agg *balance.Aggregator, actor string) *reclass.Service {
	var auditLog *audit.Log
	if p.cfg.Audit.Path != "" {
		auditLog = audit.NewLog(p.cfg.Audit.Path)
	}
	return reclass.NewService(p.repo, p.repo, agg, reclass.Options{Audit: auditLog, Actor: actor}, p.log)
}

// resolveAccount finds an account by code, falling back to its ID.
func (p *project) resolveAccount(ctx context.Context, ref string) (model.Account, error) {
	names, err := chart.Load(ctx, p.repo)
	if err != nil {
		return model.Account{}, err
	}
	if acct, ok := names.ByCode(ref); ok {
		return acct, nil
	}
	if acct, ok := names.Get(ref); ok {
		return acct, nil
	}
	return model.Account{}, fmt.Errorf("%q: %w", ref, balance.ErrAccountNotFound)
}

// periodFlags are the --year/--month and --start/--end flags shared by the
// reporting commands.
type periodFlags struct {
	year  int
	month int
	start string
	end   string
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "calendar year")
	cmd.Flags().IntVar(&f.month, "month", 0, "month of --year (1-12)")
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD")
}

func (f *periodFlags) period() (model.Period, error) {
	return model.ResolvePeriod(f.year, f.month, f.start, f.end)
}
