package gsheets

import (
	"net/http"
	"os"

	"golang.org/x/net/context"
	"golang.org/x/oauth2/google"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets"
	DRIVE  = "https://www.googleapis.com/auth/drive"
)

// Scopes requested for the service account.
var Scopes = []string{SHEETS, DRIVE}

// authorize returns an HTTP client authenticated with the service account key in the
// credentials file.
func authorize(ctx context.Context, credentials string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	config, err := google.JWTConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, err
	}

	return config.Client(ctx), nil
}
