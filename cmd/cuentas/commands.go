package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/api"
	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/recurrence"
	"github.com/jask/cuentas/internal/service"
	"github.com/jask/cuentas/internal/testdata"
)

var commands = []subcommands.Command{
	&serveCmd{},
	&createTenantCmd{},
	&attachUserCmd{},
	&importTransactionsCmd{},
	&importCategoriesCmd{},
	&seedCategoriesCmd{},
	&createPartnerCmd{},
	&createProjectCmd{},
	&projectTeamCmd{},
	&quickAddCmd{},
	&nextDueCmd{},
	&refreshRecurringCmd{},
	&auditDuplicatesCmd{},
	&resetTenantCmd{},
	&sampleRowsCmd{},
}

// run opens the environment, calls fn and maps its error to an exit status.
func run(ctx context.Context, fn func(context.Context, *env) error) subcommands.ExitStatus {
	e, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()
	if err := fn(e.ctx(ctx), e); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, service.ErrValidation) || errors.Is(err, recurrence.ErrInvalidSpec) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the HTTP API" }
func (*serveCmd) Usage() string {
	return `serve [-addr <host:port>]

  Runs the HTTP API until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (defaults to server.addr)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *env) error {
		cat, err := e.catalog()
		if err != nil {
			return err
		}
		addr := c.addr
		if addr == "" {
			addr = e.cfg.Server.Addr
		}
		h := api.NewHandler(e.db, api.Options{
			AllowedOrigins: e.cfg.Server.AllowedOrigins,
			Import:         importOptions(e.cfg.Import),
			Catalog:        cat,
		})
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(h, e.cfg.Server.AllowedOrigins, e.log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		errc := make(chan error, 1)
		go func() {
			e.log.Info().Str("addr", addr).Msg("listening")
			errc <- srv.ListenAndServe()
		}()
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		e.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

type createTenantCmd struct {
	name string
	user string
}

func (*createTenantCmd) Name() string     { return "create-tenant" }
func (*createTenantCmd) Synopsis() string { return "create a tenant and attach a user to it" }
func (*createTenantCmd) Usage() string {
	return `create-tenant -name <name> -user <user id>
`
}

func (c *createTenantCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "tenant name (required)")
	f.StringVar(&c.user, "user", "", "user id to attach (required)")
}

func (c *createTenantCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -name and -user are required.")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		tenants := &service.TenantService{Tenants: repository.NewTenantRepo(e.db)}
		t, err := tenants.Create(ctx, c.name, c.user)
		if err != nil {
			return err
		}
		fmt.Printf("Created tenant %s (%s) for user %s\n", t.Name, t.ID, c.user)
		return nil
	})
}

type attachUserCmd struct {
	user   string
	tenant string
}

func (*attachUserCmd) Name() string     { return "attach-user" }
func (*attachUserCmd) Synopsis() string { return "attach a user to an existing tenant" }
func (*attachUserCmd) Usage() string {
	return `attach-user -user <user id> -tenant <tenant id>
`
}

func (c *attachUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user id (required)")
	f.StringVar(&c.tenant, "tenant", "", "tenant id (required)")
}

func (c *attachUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.tenant == "" {
		fmt.Fprintln(os.Stderr, "Error: -user and -tenant are required.")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		tenants := &service.TenantService{Tenants: repository.NewTenantRepo(e.db)}
		return tenants.Attach(ctx, c.user, c.tenant)
	})
}

// importCmd is shared by the transaction and category imports.
type importCmd struct {
	user string
	file string
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.StringVar(&c.file, "file", "-", "JSON array of rows, - for stdin")
}

func (c *importCmd) execute(ctx context.Context, categories bool) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required.")
		return subcommands.ExitUsageError
	}
	rows, err := readRows(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading rows: %v\n", err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		runner := service.NewImportRunner(service.NewStores(e.db), importOptions(e.cfg.Import))
		var rep service.Report
		if categories {
			rep, err = runner.ImportCategories(ctx, actor, rows)
		} else {
			rep, err = runner.ImportTransactions(ctx, actor, rows)
		}
		if err != nil {
			return err
		}
		fmt.Println(rep.Result().Message)
		for _, rerr := range rep.Errors {
			fmt.Printf("  row %d [%s]: %v\n", rerr.Index, rerr.Stage, rerr)
		}
		return nil
	})
}

type importTransactionsCmd struct{ importCmd }

func (*importTransactionsCmd) Name() string     { return "import-transactions" }
func (*importTransactionsCmd) Synopsis() string { return "import spreadsheet transaction rows" }
func (*importTransactionsCmd) Usage() string {
	return `import-transactions -user <user id> [-file rows.json]

  Imports a JSON array of row objects keyed by column header. Rows that fail
  are reported and skipped; the rest are stored.
`
}

func (c *importTransactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, false)
}

type importCategoriesCmd struct{ importCmd }

func (*importCategoriesCmd) Name() string     { return "import-categories" }
func (*importCategoriesCmd) Synopsis() string { return "import category and subcategory rows" }
func (*importCategoriesCmd) Usage() string {
	return `import-categories -user <user id> [-file rows.json]
`
}

func (c *importCategoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, true)
}

type seedCategoriesCmd struct {
	user string
}

func (*seedCategoriesCmd) Name() string     { return "seed-categories" }
func (*seedCategoriesCmd) Synopsis() string { return "create the default category catalog" }
func (*seedCategoriesCmd) Usage() string {
	return `seed-categories -user <user id>

  Creates every catalog category the tenant is missing. Safe to repeat.
`
}

func (c *seedCategoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
}

func (c *seedCategoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		cat, err := e.catalog()
		if err != nil {
			return err
		}
		seeder := &service.CategorySeeder{Categories: repository.NewCategoryRepo(e.db)}
		res, err := seeder.Seed(ctx, actor.TenantID, cat)
		if err != nil {
			return err
		}
		fmt.Printf("Created %d categories (%d parents, %d subcategories)\n", res.CreatedCount, res.Parents, res.Children)
		return nil
	})
}

type createPartnerCmd struct {
	user     string
	name     string
	email    string
	phone    string
	taxID    string
	projects listFlag
}

func (*createPartnerCmd) Name() string     { return "create-partner" }
func (*createPartnerCmd) Synopsis() string { return "create a partner with its account" }
func (*createPartnerCmd) Usage() string {
	return `create-partner -user <user id> -name <name> [-project <id>=<percent>[:<role>]]...
`
}

func (c *createPartnerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.StringVar(&c.name, "name", "", "partner name (required)")
	f.StringVar(&c.email, "email", "", "email")
	f.StringVar(&c.phone, "phone", "", "phone")
	f.StringVar(&c.taxID, "tax-id", "", "tax id")
	f.Var(&c.projects, "project", "project share as id=percent[:role], repeatable")
}

func (c *createPartnerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.projects)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	in := service.NewPartner{Name: c.name, Email: c.email, Phone: c.phone, TaxID: c.taxID}
	for _, s := range shares {
		in.Projects = append(in.Projects, service.ProjectShare{ProjectID: s.ID, EquityPercentage: s.Percent, Role: s.Role})
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		svc := &service.PartnerService{DB: e.db, DefaultCurrency: importOptions(e.cfg.Import).Defaults.Currency}
		out, err := svc.Create(ctx, actor, in)
		if err != nil {
			return err
		}
		fmt.Printf("Created partner %s (%s) with account %q\n", out.Partner.Name, out.Partner.ID, out.Account.Name)
		return nil
	})
}

type createProjectCmd struct {
	user        string
	name        string
	description string
	partners    listFlag
}

func (*createProjectCmd) Name() string     { return "create-project" }
func (*createProjectCmd) Synopsis() string { return "create a project and its partner shares" }
func (*createProjectCmd) Usage() string {
	return `create-project -user <user id> -name <name> [-partner <id>=<percent>[:<role>]]...
`
}

func (c *createProjectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.StringVar(&c.name, "name", "", "project name (required)")
	f.StringVar(&c.description, "description", "", "description")
	f.Var(&c.partners, "partner", "partner share as id=percent[:role], repeatable")
}

func (c *createProjectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.partners)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	in := service.NewProject{Name: c.name, Description: c.description}
	for _, s := range shares {
		in.Partners = append(in.Partners, service.PartnerShare{PartnerID: s.ID, EquityPercentage: s.Percent, Role: s.Role})
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		p, err := (&service.ProjectService{DB: e.db}).Create(ctx, actor, in)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
		return nil
	})
}

type projectTeamCmd struct {
	user string
	id   string
}

func (*projectTeamCmd) Name() string     { return "project-team" }
func (*projectTeamCmd) Synopsis() string { return "list a project's partners and the owner's share" }
func (*projectTeamCmd) Usage() string {
	return `project-team -user <user id> -id <project id>
`
}

func (c *projectTeamCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.StringVar(&c.id, "id", "", "project id (required)")
}

func (c *projectTeamCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		team, err := (&service.ProjectService{DB: e.db}).Team(ctx, actor, c.id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", team.Project.Name)
		for _, m := range team.Members {
			fmt.Printf("  %-24s %6s%%  %s\n", m.Name, m.EquityPercentage.StringFixed(2), m.Role)
		}
		fmt.Printf("  %-24s %6s%%\n", "Owner", team.OwnerShare.StringFixed(2))
		return nil
	})
}

// ruleFlags describes a recurrence on the command line.
type ruleFlags struct {
	freq     string
	interval int
	start    string
	weekdays string
	until    string
}

func (r *ruleFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.freq, "freq", "", "daily, weekly, monthly or yearly")
	f.IntVar(&r.interval, "interval", 1, "repeat every n periods")
	f.StringVar(&r.start, "start", "", "first occurrence, YYYY-MM-DD")
	f.StringVar(&r.weekdays, "weekdays", "", "comma separated MO..SU, weekly only")
	f.StringVar(&r.until, "until", "", "last possible occurrence, YYYY-MM-DD")
}

func (r *ruleFlags) spec() (recurrence.Spec, error) {
	freq, err := recurrence.ParseFrequency(r.freq)
	if err != nil {
		return recurrence.Spec{}, err
	}
	s := recurrence.Spec{Frequency: freq, Interval: r.interval}
	if r.start != "" {
		if s.Start, err = time.Parse(time.DateOnly, r.start); err != nil {
			return recurrence.Spec{}, fmt.Errorf("start: %w", err)
		}
	}
	if r.until != "" {
		end, err := time.Parse(time.DateOnly, r.until)
		if err != nil {
			return recurrence.Spec{}, fmt.Errorf("until: %w", err)
		}
		s.End = &end
	}
	for _, code := range strings.Split(r.weekdays, ",") {
		if strings.TrimSpace(code) == "" {
			continue
		}
		d, err := recurrence.ParseWeekday(code)
		if err != nil {
			return recurrence.Spec{}, err
		}
		s.Weekdays = append(s.Weekdays, d)
	}
	return s, nil
}

type quickAddCmd struct {
	user     string
	date     string
	desc     string
	amount   string
	typ      string
	account  string
	category string
	project  string
	paidBy   string
	rule     ruleFlags
}

func (*quickAddCmd) Name() string     { return "quick-add" }
func (*quickAddCmd) Synopsis() string { return "record a transaction, optionally recurring" }
func (*quickAddCmd) Usage() string {
	return `quick-add -user <user id> -desc <text> -amount <n> [-type expense|income] [-freq <f> ...]

  Records one transaction. With -freq a recurring template is stored too and
  its next due date printed.
`
}

func (c *quickAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.StringVar(&c.date, "date", "", "transaction date, YYYY-MM-DD (default today)")
	f.StringVar(&c.desc, "desc", "", "description (required)")
	f.StringVar(&c.amount, "amount", "", "amount (required)")
	f.StringVar(&c.typ, "type", "expense", "expense or income")
	f.StringVar(&c.account, "account", "", "account id")
	f.StringVar(&c.category, "category", "", "category id")
	f.StringVar(&c.project, "project", "", "project id")
	f.StringVar(&c.paidBy, "paid-by", "", "paying partner id")
	c.rule.set(f)
}

func (c *quickAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	in := service.QuickAdd{
		Description:     c.desc,
		Amount:          amount,
		Type:            c.typ,
		AccountID:       c.account,
		CategoryID:      c.category,
		ProjectID:       c.project,
		PaidByPartnerID: c.paidBy,
	}
	if c.date != "" {
		if in.Date, err = time.Parse(time.DateOnly, c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error: date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.rule.freq != "" {
		spec, err := c.rule.spec()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		in.Recurrence = &spec
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		out, err := (&service.QuickAddService{DB: e.db}).Add(ctx, actor, in)
		if err != nil {
			return err
		}
		cur := importOptions(e.cfg.Import).Defaults.Currency
		shown := money.NewFromFloat(out.Transaction.Amount.InexactFloat64(), cur).Display()
		fmt.Printf("Recorded %s %s on %s\n", out.Transaction.Type, shown, out.Transaction.Date.Format(time.DateOnly))
		if t := out.Template; t != nil {
			if t.NextDueDate != nil {
				fmt.Printf("Repeats %s, next due %s\n", t.Frequency, t.NextDueDate.Format(time.DateOnly))
			} else {
				fmt.Printf("Repeats %s, no further occurrences\n", t.Frequency)
			}
		}
		return nil
	})
}

type nextDueCmd struct {
	rule  ruleFlags
	from  string
	count int
}

func (*nextDueCmd) Name() string     { return "next-due" }
func (*nextDueCmd) Synopsis() string { return "preview upcoming dates of a recurrence" }
func (*nextDueCmd) Usage() string {
	return `next-due -freq <f> -start <date> [-from <date>] [-count n]
`
}

func (c *nextDueCmd) SetFlags(f *flag.FlagSet) {
	c.rule.set(f)
	f.StringVar(&c.from, "from", "", "reference date, YYYY-MM-DD (default today)")
	f.IntVar(&c.count, "count", 1, "number of occurrences to list")
}

// Execute needs no database.
func (c *nextDueCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	spec, err := c.rule.spec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if c.from != "" {
		if from, err = time.Parse(time.DateOnly, c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error: from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if spec.Start.IsZero() {
		spec.Start = from
	}
	occ, err := recurrence.Occurrences(spec, from, max(c.count, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	fmt.Println(spec.String())
	if len(occ) == 0 {
		fmt.Println("no further occurrences")
	}
	for _, t := range occ {
		fmt.Println(t.Format(time.DateOnly))
	}
	return subcommands.ExitSuccess
}

type refreshRecurringCmd struct {
	user string
}

func (*refreshRecurringCmd) Name() string     { return "refresh-recurring" }
func (*refreshRecurringCmd) Synopsis() string { return "recompute next due dates of recurring templates" }
func (*refreshRecurringCmd) Usage() string {
	return `refresh-recurring -user <user id>
`
}

func (c *refreshRecurringCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
}

func (c *refreshRecurringCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		res, err := (&service.RecurringService{DB: e.db}).Refresh(ctx, actor)
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

type auditDuplicatesCmd struct {
	user      string
	threshold float64
}

func (*auditDuplicatesCmd) Name() string     { return "audit-duplicates" }
func (*auditDuplicatesCmd) Synopsis() string { return "list accounts, partners and projects with near-identical names" }
func (*auditDuplicatesCmd) Usage() string {
	return `audit-duplicates -user <user id> [-threshold 0.2]
`
}

func (c *auditDuplicatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.Float64Var(&c.threshold, "threshold", service.DefaultDuplicateThreshold, "maximum normalized edit distance")
}

func (c *auditDuplicatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		pairs, err := (&service.DuplicateAuditor{DB: e.db, Threshold: c.threshold}).Audit(ctx, actor)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Println("No duplicates found")
			return nil
		}
		return printJSON(pairs)
	})
}

type resetTenantCmd struct {
	user    string
	confirm bool
}

func (*resetTenantCmd) Name() string     { return "reset-tenant" }
func (*resetTenantCmd) Synopsis() string { return "delete all of a tenant's financial data" }
func (*resetTenantCmd) Usage() string {
	return `reset-tenant -user <user id> -confirm

  Deletes transactions, recurring templates, accounts, partners, projects and
  categories. The tenant and its users remain.
`
}

func (c *resetTenantCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "acting user id (required)")
	f.BoolVar(&c.confirm, "confirm", false, "required, the reset cannot be undone")
}

func (c *resetTenantCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.confirm {
		fmt.Fprintln(os.Stderr, "Error: refusing to reset without -confirm.")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, e *env) error {
		actor, err := e.actor(ctx, c.user)
		if err != nil {
			return err
		}
		counts, err := (&service.MaintenanceService{DB: e.db}).ResetTenant(ctx, actor)
		if err != nil {
			return err
		}
		return printJSON(counts)
	})
}

type sampleRowsCmd struct {
	n          int
	seed       uint64
	from       string
	categories bool
}

func (*sampleRowsCmd) Name() string     { return "sample-rows" }
func (*sampleRowsCmd) Synopsis() string { return "print synthetic import rows as JSON" }
func (*sampleRowsCmd) Usage() string {
	return `sample-rows [-n 50] [-seed 1] [-from YYYY-MM-DD] [-categories]

  Prints rows that import-transactions (or, with -categories,
  import-categories) accepts.
`
}

func (c *sampleRowsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 50, "number of transaction rows")
	f.Uint64Var(&c.seed, "seed", 1, "random seed")
	f.StringVar(&c.from, "from", "", "earliest date, YYYY-MM-DD (default 90 days ago)")
	f.BoolVar(&c.categories, "categories", false, "print category rows from the catalog instead")
}

// Execute needs no database.
func (c *sampleRowsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cat := catalog.Default()
	if c.categories {
		if err := printJSON(testdata.CategoryRows(cat)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	from := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -90)
	if c.from != "" {
		var err error
		if from, err = time.Parse(time.DateOnly, c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error: from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	rows := testdata.Rows(c.seed, c.n, from, testdata.DefaultPools(), cat)
	if err := printJSON(rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
