package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/uhppoted/uhppoted-app-sheets-sync/config"
	"github.com/uhppoted/uhppoted-app-sheets-sync/db"
	"github.com/uhppoted/uhppoted-app-sheets-sync/loader"
)

var SyncCmd = Sync{
	command: command{
		env:         ".env",
		credentials: "",
		name:        "",
		url:         "",
		debug:       false,
	},

	jobs:       "",
	tab:        "",
	table:      "",
	schema:     loader.DefaultSchema,
	logTable:   "",
	logSchema:  loader.DefaultSchema,
	addColumns: false,
	dryrun:     false,
}

type Sync struct {
	command
	jobs       string
	tab        string
	table      string
	schema     string
	logTable   string
	logSchema  string
	addColumns bool
	dryrun     bool
}

func (cmd *Sync) Name() string {
	return "sync"
}

func (cmd *Sync) Description() string {
	return "Replaces the contents of a set of database tables with the rows of the matching Google Sheets worksheets"
}

func (cmd *Sync) Usage() string {
	return "[--env <file>] [--jobs <file>] [--tab <tab> --table <table>]"
}

func (cmd *Sync) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [sync] [options]\n", APP)
	fmt.Println()
	fmt.Println("  Copies each configured worksheet tab to a database table, replacing the table contents.")
	fmt.Println("  Column names are the worksheet column labels, lower-cased and with spaces replaced by")
	fmt.Println("  underscores. 'sync' is the default command.")
	fmt.Println()
	fmt.Println("  Environment (or .env file):")
	fmt.Println("    DATABASE_URL                    postgres://... or sqlite://<file> (required)")
	fmt.Println("    GOOGLE_SHEETS_NAME              spreadsheet name (defaults to 'ABC Business Data')")
	fmt.Println("    GOOGLE_SHEETS_URL               spreadsheet URL (optional)")
	fmt.Println("    GOOGLE_APPLICATION_CREDENTIALS  service account credentials (defaults to 'credentials.json')")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s\n", APP)
	fmt.Printf("    %s --debug sync --jobs jobs.yaml --log-table sheets_sync_log\n", APP)
	fmt.Printf("    %s sync --tab Parts --table raw_sheets_parts --dryrun\n", APP)
	fmt.Println()
}

func (cmd *Sync) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("sync")

	flagset.StringVar(&cmd.jobs, "jobs", cmd.jobs, "YAML file with the list of tabs to sync. Defaults to Parts, Expenses and Marketing")
	flagset.StringVar(&cmd.tab, "tab", cmd.tab, "Syncs a single worksheet tab (requires --table)")
	flagset.StringVar(&cmd.table, "table", cmd.table, "Database table for --tab")
	flagset.StringVar(&cmd.schema, "schema", cmd.schema, "Database schema for --tab")
	flagset.StringVar(&cmd.logTable, "log-table", cmd.logTable, "Appends a summary of each sync to this table")
	flagset.StringVar(&cmd.logSchema, "log-schema", cmd.logSchema, "Database schema for --log-table")
	flagset.BoolVar(&cmd.addColumns, "add-columns", cmd.addColumns, "Adds new worksheet columns to an existing table instead of failing the sync")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Retrieves and validates the worksheets without updating the database")

	return flagset
}

// Execute syncs every configured job. Failed jobs are logged and do not cause the command
// to fail: only configuration errors are returned.
func (cmd *Sync) Execute(args ...any) error {
	ctx, options := parse(args...)

	cmd.debug = options.Debug

	conf, err := cmd.configure()
	if err != nil {
		return err
	}

	if err := cmd.configureJobs(conf); err != nil {
		return err
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	policy := db.Strict
	if cmd.addColumns {
		policy = db.AddColumns
	}

	store, err := db.NewStore(conf.DatabaseURL, policy, cmd.debug)
	if err != nil {
		return err
	}

	if cmd.debug {
		debugf("Spreadsheet:%q  url:%q  database:%v  policy:%v  jobs:%v", conf.Spreadsheet, conf.SpreadsheetURL, store.Dialect(), policy, conf.Jobs)
	}

	l := loader.Loader{
		Source: cmd.spreadsheet(conf),
		Sink:   store,
		DryRun: cmd.dryrun,
		Debug:  cmd.debug,
	}

	if journal := cmd.journal(store); journal != nil {
		l.Journal = journal

		if cmd.debug {
			debugf("Sync log:%v", journal)
		}
	}

	results := l.Run(ctx, conf.Jobs)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		warnf("%v of %v tabs failed to sync", failed, len(results))
	} else {
		infof("Synced %v tabs", len(results))
	}

	return nil
}

func (cmd *Sync) journal(store *db.Store) *db.Journal {
	name := strings.TrimSpace(cmd.logTable)
	if name == "" {
		return nil
	}

	schema := strings.TrimSpace(cmd.logSchema)
	if schema == "" {
		schema = loader.DefaultSchema
	}

	return db.NewJournal(store, schema, name)
}

func (cmd *Sync) configureJobs(conf *config.Config) error {
	tab := strings.TrimSpace(cmd.tab)
	table := strings.TrimSpace(cmd.table)
	schema := strings.TrimSpace(cmd.schema)

	switch {
	case tab != "" && table == "":
		return fmt.Errorf("--table is required with --tab")

	case tab == "" && table != "":
		return fmt.Errorf("--tab is required with --table")

	case tab != "":
		conf.Jobs = []loader.Job{{Tab: tab, Table: table, Schema: schema}}

	case strings.TrimSpace(cmd.jobs) != "":
		jobs, err := config.LoadJobs(cmd.jobs)
		if err != nil {
			return err
		}

		conf.Jobs = jobs
	}

	return nil
}
