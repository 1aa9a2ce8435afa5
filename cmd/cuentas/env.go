package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/config"
	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/importrow"
	"github.com/jask/cuentas/internal/logger"
	"github.com/jask/cuentas/internal/service"
)

// env is what every command needs once config is loaded and the database
// is migrated.
type env struct {
	cfg config.Config
	db  *sql.DB
	log zerolog.Logger
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrationsWithDB(db, cfg.Database.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	version, err := database.SchemaVersion(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}
	log.Debug().Str("db", cfg.Database.Path).Uint("schema", version).Msg("database ready")
	return &env{cfg: cfg, db: db, log: log}, nil
}

func (e *env) Close() error { return e.db.Close() }

// ctx attaches the configured logger.
func (e *env) ctx(ctx context.Context) context.Context {
	return logger.WithContext(ctx, e.log)
}

func (e *env) actor(ctx context.Context, userID string) (service.Actor, error) {
	tenants := &service.TenantService{Tenants: repository.NewTenantRepo(e.db)}
	return tenants.Resolve(ctx, userID)
}

func (e *env) catalog() (catalog.Catalog, error) {
	return catalog.Load(e.cfg.Catalog.Path)
}

// importOptions maps the import section of the config onto runner options,
// keeping the built-in value for anything left unset.
func importOptions(cfg config.ImportConfig) service.ImportOptions {
	opts := service.DefaultImportOptions()
	if cfg.DefaultCurrency != "" {
		opts.Defaults.Currency = strings.ToUpper(cfg.DefaultCurrency)
	}
	if cfg.DefaultAccountType != "" {
		opts.Defaults.Type = cfg.DefaultAccountType
	}
	if len(cfg.DateLayouts) > 0 {
		opts.DateLayouts = cfg.DateLayouts
	}
	if cfg.MaxReportErrors > 0 {
		opts.MaxReportErrors = cfg.MaxReportErrors
	}
	return opts
}

// readRows decodes a JSON array of row objects from path, or stdin for "-".
func readRows(path string) ([]importrow.Row, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var rows []importrow.Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// parseShares reads "id=percent[:role]" pairs.
func parseShares(list []string) ([]shareArg, error) {
	var out []shareArg
	for _, item := range list {
		id, rest, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("share %q: want id=percent[:role]", item)
		}
		pct, role, _ := strings.Cut(rest, ":")
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("share %q: %w", item, err)
		}
		out = append(out, shareArg{ID: strings.TrimSpace(id), Percent: d, Role: strings.TrimSpace(role)})
	}
	return out, nil
}

type shareArg struct {
	ID      string
	Percent decimal.Decimal
	Role    string
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}
