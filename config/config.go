package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/uhppoted/uhppoted-app-sheets-sync/loader"
)

const (
	DATABASE_URL                   = "DATABASE_URL"
	GOOGLE_SHEETS_NAME             = "GOOGLE_SHEETS_NAME"
	GOOGLE_SHEETS_URL              = "GOOGLE_SHEETS_URL"
	GOOGLE_APPLICATION_CREDENTIALS = "GOOGLE_APPLICATION_CREDENTIALS"

	DefaultSpreadsheet = "ABC Business Data"
	DefaultCredentials = "credentials.json"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

// DefaultJobs is the list of worksheet tabs synced when no job file is configured.
var DefaultJobs = []loader.Job{
	{Tab: "Parts", Table: "raw_sheets_parts", Schema: loader.DefaultSchema},
	{Tab: "Expenses", Table: "raw_sheets_expenses", Schema: loader.DefaultSchema},
	{Tab: "Marketing", Table: "raw_sheets_marketing", Schema: loader.DefaultSchema},
}

// Config is constructed once at startup and passed explicitly to everything that needs it.
type Config struct {
	DatabaseURL    string
	Spreadsheet    string
	SpreadsheetURL string
	Credentials    string
	Jobs           []loader.Job
}

// Lookup retrieves an environment variable, e.g. os.LookupEnv.
type Lookup func(key string) (string, bool)

// Load builds the configuration from the environment, falling back to the values in the
// .env file (if it exists) and then to the defaults. Environment variables take precedence
// over the .env file.
func Load(envfile string, lookup Lookup) (*Config, error) {
	dotenv := map[string]string{}

	if envfile != "" {
		if _, err := os.Stat(envfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		} else if err == nil {
			if dotenv, err = godotenv.Read(envfile); err != nil {
				return nil, fmt.Errorf("error reading %v (%w)", envfile, err)
			}
		}
	}

	get := func(key, defval string) string {
		if lookup != nil {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}

		if v, ok := dotenv[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}

		return defval
	}

	return &Config{
		DatabaseURL:    get(DATABASE_URL, ""),
		Spreadsheet:    get(GOOGLE_SHEETS_NAME, DefaultSpreadsheet),
		SpreadsheetURL: get(GOOGLE_SHEETS_URL, ""),
		Credentials:    get(GOOGLE_APPLICATION_CREDENTIALS, DefaultCredentials),
		Jobs:           append([]loader.Job{}, DefaultJobs...),
	}, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}

	if len(c.Jobs) == 0 {
		return fmt.Errorf("no sync jobs configured")
	}

	return nil
}

// LoadJobs reads a YAML job list, e.g.
//
//	jobs:
//	  - tab: Parts
//	    table: raw_sheets_parts
//	  - tab: Expenses
//	    table: raw_sheets_expenses
//	    schema: staging
func LoadJobs(file string) ([]loader.Job, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var list struct {
		Jobs []loader.Job `yaml:"jobs"`
	}

	if err := yaml.Unmarshal(bytes, &list); err != nil {
		return nil, fmt.Errorf("invalid job file %v (%w)", file, err)
	}

	jobs := []loader.Job{}
	for i, job := range list.Jobs {
		job.Tab = strings.TrimSpace(job.Tab)
		job.Table = strings.TrimSpace(job.Table)
		job.Schema = strings.TrimSpace(job.Schema)

		if job.Tab == "" {
			return nil, fmt.Errorf("job %d: missing tab", i+1)
		}

		if job.Table == "" {
			return nil, fmt.Errorf("job %d: missing table", i+1)
		}

		if job.Schema == "" {
			job.Schema = loader.DefaultSchema
		}

		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs in %v", file)
	}

	return jobs, nil
}
