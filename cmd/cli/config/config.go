package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crucial707/todo-api/internal/apiclient"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".todo_token"
	tokenFileMode = 0o600
	envAPIURL     = "TODO_API_URL"
	envTokenFile  = "TODO_TOKEN_FILE"
)

// ErrNotLoggedIn is returned by ReadToken when no token has been saved.
var ErrNotLoggedIn = errors.New("not logged in: run `todo login` first")

// APIURL returns the base URL for the Todo API.
// It can be overridden with the TODO_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv(envAPIURL); v != "" {
		return v
	}
	return defaultAPIURL
}

// TokenFile returns where the access token is stored.
func TokenFile() string {
	if v := os.Getenv(envTokenFile); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return tokenFileName
	}
	return filepath.Join(home, tokenFileName)
}

func SaveToken(token string) error {
	path := TokenFile()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(token), tokenFileMode)
}

func ReadToken() (string, error) {
	b, err := os.ReadFile(TokenFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// ClearToken removes the stored token; a missing file is not an error.
func ClearToken() error {
	err := os.Remove(TokenFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Client returns an API client without credentials.
func Client() *apiclient.Client {
	return apiclient.New(APIURL(), "")
}

// AuthedClient returns an API client carrying the stored token.
func AuthedClient() (*apiclient.Client, error) {
	token, err := ReadToken()
	if err != nil {
		return nil, err
	}
	return apiclient.New(APIURL(), token), nil
}
