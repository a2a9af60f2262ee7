package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrNotFound = errors.New("not found")

// Spreadsheet is a Google Sheets spreadsheet identified either by name (looked up with the
// Drive API) or by URL.
//
// Every call to Rows authenticates afresh with the service account credentials. Options
// replaces the authenticated HTTP client and is intended for pointing the client at a
// different endpoint.
type Spreadsheet struct {
	Credentials string
	Name        string
	URL         string
	Options     []option.ClientOption
	Debug       bool
}

// Rows returns all the cell values of the named worksheet, starting with the header row.
func (s *Spreadsheet) Rows(ctx context.Context, tab string) ([][]interface{}, error) {
	google, gdrive, err := s.services(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.resolve(ctx, gdrive)
	if err != nil {
		return nil, err
	}

	spreadsheet, err := getSpreadsheet(ctx, google, id)
	if err != nil {
		return nil, err
	}

	sheet, err := getSheet(spreadsheet, tab)
	if err != nil {
		return nil, err
	}

	area := quote(sheet.Properties.Title)
	if s.Debug {
		debugf("Spreadsheet - ID:%s  range:%s", id, area)
	}

	response, err := google.Spreadsheets.Values.Get(id, area).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet '%s' (%w)", tab, err)
	}

	return response.Values, nil
}

func (s *Spreadsheet) services(ctx context.Context) (*sheets.Service, *drive.Service, error) {
	options := s.Options

	if len(options) == 0 {
		client, err := authorize(ctx, s.Credentials)
		if err != nil {
			return nil, nil, fmt.Errorf("authentication/authorization error (%w)", err)
		}

		options = []option.ClientOption{option.WithHTTPClient(client)}
	}

	google, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	gdrive, err := drive.NewService(ctx, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create new Drive client (%w)", err)
	}

	return google, gdrive, nil
}

// resolve returns the spreadsheet ID, preferring the URL (if configured) over the name.
func (s *Spreadsheet) resolve(ctx context.Context, gdrive *drive.Service) (string, error) {
	if url := strings.TrimSpace(s.URL); url != "" {
		match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(url)
		if len(match) < 2 || match[1] == "" {
			return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
		}

		return match[1], nil
	}

	return findSpreadsheet(ctx, gdrive, s.Name)
}

func findSpreadsheet(ctx context.Context, gdrive *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escape(name))

	files, err := gdrive.Files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for spreadsheet '%s' (%w)", name, err)
	}

	if len(files.Files) == 0 {
		return "", fmt.Errorf("spreadsheet '%s' %w", name, ErrNotFound)
	}

	return files.Files[0].Id, nil
}

func getSpreadsheet(ctx context.Context, google *sheets.Service, id string) (*sheets.Spreadsheet, error) {
	spreadsheet, err := google.Spreadsheets.Get(id).Context(ctx).Do()
	if err != nil {
		var e *googleapi.Error
		if errors.As(err, &e) && e.Code == http.StatusNotFound {
			return nil, fmt.Errorf("spreadsheet %s %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	return spreadsheet, nil
}

func getSheet(spreadsheet *sheets.Spreadsheet, name string) (*sheets.Sheet, error) {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && strings.EqualFold(strings.TrimSpace(sheet.Properties.Title), strings.TrimSpace(name)) {
			return sheet, nil
		}
	}

	return nil, fmt.Errorf("worksheet '%s' %w", name, ErrNotFound)
}

// quote returns an A1 range that covers the whole worksheet.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// escape escapes a string literal for a Drive query.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
