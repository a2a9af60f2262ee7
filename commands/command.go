package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/uhppoted/uhppoted-app-sheets-sync/config"
	"github.com/uhppoted/uhppoted-app-sheets-sync/gsheets"
)

const APP = "uhppoted-app-sheets-sync"

type Options struct {
	Debug bool
}

// command holds the options shared by the commands that read from Google Sheets.
type command struct {
	env         string
	credentials string
	name        string
	url         string
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.env, "env", c.env, "Path for the .env file. Ignored if the file does not exist")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the service account 'credentials.json' file. Overrides GOOGLE_APPLICATION_CREDENTIALS")
	flagset.StringVar(&c.name, "spreadsheet", c.name, "Spreadsheet name. Overrides GOOGLE_SHEETS_NAME")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL. Takes precedence over the spreadsheet name")

	return flagset
}

// configure loads the configuration and applies the command line overrides.
func (c *command) configure() (*config.Config, error) {
	conf, err := config.Load(c.env, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(c.credentials); v != "" {
		conf.Credentials = v
	}

	if v := strings.TrimSpace(c.name); v != "" {
		conf.Spreadsheet = v
	}

	if v := strings.TrimSpace(c.url); v != "" {
		conf.SpreadsheetURL = v
	}

	return conf, nil
}

func (c *command) spreadsheet(conf *config.Config) *gsheets.Spreadsheet {
	return &gsheets.Spreadsheet{
		Credentials: conf.Credentials,
		Name:        conf.Spreadsheet,
		URL:         conf.SpreadsheetURL,
		Debug:       c.debug,
	}
}

// parse extracts the context and global options from the arguments passed to Execute.
func parse(args ...any) (context.Context, *Options) {
	ctx := context.Background()
	options := Options{}

	for _, arg := range args {
		switch v := arg.(type) {
		case context.Context:
			ctx = v

		case *Options:
			options = *v
		}
	}

	return ctx, &options
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}

func filename(dir, tab string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, tab)

	return filepath.Join(dir, name)
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "ERROR", fmt.Sprintf(format, args...))
}
