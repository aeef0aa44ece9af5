// Package client provides the OAuth2 HTTP client used by Google-backed
// exporters.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultSecretFile is the default path to the Google OAuth credentials
// JSON file.
const DefaultSecretFile = "data/client_secret.json"

// DefaultTokenFile is the default path to the stored OAuth token.
const DefaultTokenFile = "data/token.json"

// New builds an HTTP client authorized with the scopes the selected
// exporter needs. A previously stored token is reused when present;
// otherwise the interactive authorization flow runs and the resulting
// token is saved for later runs.
func New(secretPath, tokenPath string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(secretPath)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		slog.Info("no stored token found, starting authorization flow", "path", tokenPath)
		tok, err = tokenFromWeb(cfg)
		if err != nil {
			return nil, fmt.Errorf("authorizing: %w", err)
		}
		if err := SaveToken(tokenPath, tok); err != nil {
			slog.Error("failed to save token", "error", err)
		}
	}

	return cfg.Client(context.Background(), tok), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// SaveToken persists a token for later runs.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}
