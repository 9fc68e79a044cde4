package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"lendledger/internal/adapter/middleware"
	"lendledger/internal/adapter/repository/sqlstore"
	"lendledger/internal/app"
	"lendledger/internal/config"
	"lendledger/internal/domain/user"
	"lendledger/internal/infrastructure/logging"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&seedCmd{},
	&sweepCmd{},
	&balanceCmd{},
	&summaryCmd{},
	&tokenCmd{},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// open builds the full application; the caller closes it.
func open(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.App.LogLevel, cfg.App.ServiceName+"-ctl", cfg.App.Env)
	return app.Build(ctx, cfg, logger)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the ledger tables" }
func (*migrateCmd) Usage() string {
	return `lendctl migrate

  Runs the schema migration against the configured database.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if err := sqlstore.Migrate(a.DB); err != nil {
		return fail(err)
	}
	fmt.Println("schema up to date")
	return subcommands.ExitSuccess
}

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "provision the organization treasury account" }
func (*seedCmd) Usage() string {
	return `lendctl seed

  Creates the organization user and its ORG account when missing and prints
  the account. Running it again is harmless.
`
}
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	acct, err := a.Accounts.ProvisionTreasury(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s %s\n", acct.ID, acct.AccountNumber)
	return subcommands.ExitSuccess
}

type sweepCmd struct {
	batch int
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "default approved collateral past its due date" }
func (*sweepCmd) Usage() string {
	return `lendctl sweep [-batch <n>]

  Runs one overdue sweep and prints the outcome.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.batch, "batch", 0, "Maximum number of items to scan (0 uses the configured batch).")
}

func (c *sweepCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	batch := c.batch
	if batch <= 0 {
		batch = a.Config.Sweep.Batch
	}
	res, err := a.Collaterals.SweepOverdue(ctx, batch)
	if err != nil {
		return fail(err)
	}
	printMarkdown(sweepMarkdown(res))
	return subcommands.ExitSuccess
}

type balanceCmd struct {
	account string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show an account's balances" }
func (*balanceCmd) Usage() string {
	return `lendctl balance -a <account_id>
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account id.")
}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	b, err := a.Accounts.Balance(ctx, c.account)
	if err != nil {
		return fail(err)
	}
	printMarkdown(balanceMarkdown(b))
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	user string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize a user's ledger entries" }
func (*summaryCmd) Usage() string {
	return `lendctl summary -u <user_id>

  Prints entry counts and totals per type and status, then the net amount
  per type (completed minus reversed).
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	s, err := a.Transactions.Summary(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	printMarkdown(summaryMarkdown(s))
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	user string
	role string
	ttl  time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for the API" }
func (*tokenCmd) Usage() string {
	return `lendctl token -u <user_id> [-r <role>] [-ttl <duration>]

  Signs a token with the configured auth.jwt_secret.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "Subject user id.")
	f.StringVar(&c.role, "r", string(user.RoleUser), "Role claim (user, admin, verifier, organization).")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	role := user.Role(c.role)
	if c.user == "" || !role.Valid() {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fail(fmt.Errorf("auth.jwt_secret is not set"))
	}
	tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, c.user, role, c.ttl, time.Now())
	if err != nil {
		return fail(err)
	}
	fmt.Println(tok)
	return subcommands.ExitSuccess
}
