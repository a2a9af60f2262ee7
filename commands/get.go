package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-sheets-sync/table"
)

var GetCmd = Get{
	command: command{
		env:         ".env",
		credentials: "",
		name:        "",
		url:         "",
		debug:       false,
	},

	tab:  "",
	file: "",
}

type Get struct {
	command
	tab  string
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a Google Sheets worksheet tab and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--tab <tab> [--file <file>]"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --tab <tab> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet tab to a TSV file, with the column names as they")
	fmt.Println("  would be written to the database by 'sync'")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                                        --spreadsheet "ABC Business Data" \`)
	fmt.Println(`                                        --tab "Parts" \`)
	fmt.Println(`                                        --file "parts.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.tab, "tab", cmd.tab, "Worksheet tab e.g. 'Parts'")
	flagset.StringVar(&cmd.file, "file", cmd.file, fmt.Sprintf("TSV file name. Defaults to '%s'", filepath.Join(DEFAULT_WORKDIR, "<tab> - <yyyy-mm-dd HHmmss>.tsv")))

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	ctx, options := parse(args...)

	cmd.debug = options.Debug

	// ... check parameters
	if strings.TrimSpace(cmd.tab) == "" {
		return fmt.Errorf("--tab is a required option")
	}

	conf, err := cmd.configure()
	if err != nil {
		return err
	}

	file := cmd.file
	if strings.TrimSpace(file) == "" {
		file = filename(DEFAULT_WORKDIR, fmt.Sprintf("%s - %s.tsv", cmd.tab, time.Now().Format("2006-01-02 150405")))
	}

	if cmd.debug {
		debugf("Spreadsheet - name:%q  url:%q  tab:%s", conf.Spreadsheet, conf.SpreadsheetURL, cmd.tab)
	}

	rows, err := cmd.spreadsheet(conf).Rows(ctx, cmd.tab)
	if err != nil {
		return err
	}

	t, err := table.MakeTable(rows)
	if err != nil {
		return err
	} else if len(t.Header) == 0 {
		return fmt.Errorf("no data in worksheet '%s'", cmd.tab)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sheets-sync-*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := table.MakeTSV(tmp, t); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	tmp.Close()

	if err := os.Rename(tmp.Name(), file); err != nil {
		return err
	}

	infof("Retrieved %v rows from '%v' to file %s", len(t.Records), cmd.tab, file)

	return nil
}
