package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	configFileName = ".gcalweek.toml"
	defaultDBName  = ".gcalweek.db"
)

type Config struct {
	General GeneralConfig           `toml:"general"`
	Google  GoogleConfig            `toml:"google"`
	Login   LoginConfig             `toml:"login"`
	CalDAVs map[string]CalDAVConfig `toml:"caldav_servers"`
}

type GeneralConfig struct {
	VerbosityLevel int    `toml:"verbosity_level"`
	Database       string `toml:"database"`
	LogFormat      string `toml:"log_format"`
}

type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type LoginConfig struct {
	Provider   string `toml:"provider"`
	Server     string `toml:"server"`
	CalendarID string `toml:"calendar_id"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	GMTOffset  int    `toml:"gmt_offset"`
}

type CalDAVConfig struct {
	Name      string `toml:"name"`
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// envOverrides are applied on top of the TOML file.
type envOverrides struct {
	Password  string `env:"GCALWEEK_PASSWORD"`
	Database  string `env:"GCALWEEK_DB"`
	Verbosity int    `env:"GCALWEEK_VERBOSITY" envDefault:"-1"`
}

// readConfig looks for filename in the current directory, then in
// $HOME/.config/gcalweek/. A missing file yields the defaults.
func readConfig(filename string) (*Config, string, error) {
	configDir := ""
	data, err := os.ReadFile(filename)
	if err != nil {
		home := filepath.Join(os.Getenv("HOME"), ".config", "gcalweek")
		data, err = os.ReadFile(filepath.Join(home, filename))
		if err == nil {
			configDir = home
		}
	}

	config := &Config{}
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, config); err != nil {
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, "", err
	}
	if config.General.Database == "" {
		config.General.Database = defaultDBName
	}
	if config.Login.Provider == "" {
		config.Login.Provider = "google"
	}
	return config, configDir, nil
}

func applyEnvOverrides(config *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if overrides.Password != "" {
		config.Login.Password = overrides.Password
	}
	if overrides.Database != "" {
		config.General.Database = overrides.Database
	}
	if overrides.Verbosity >= 0 {
		config.General.VerbosityLevel = overrides.Verbosity
	}
	return nil
}

// newLogger maps the verbosity level onto logrus levels:
// 0 - warnings and errors only
// 1 - informational messages
// 2 and above - debug output
func newLogger(config *Config, out io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)
	if config.General.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	switch v := config.General.VerbosityLevel; {
	case v <= 0:
		logger.SetLevel(logrus.WarnLevel)
	case v == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(logger).WithField("app", "gcalweek")
}

// openDB opens the database next to the config file when it was found in
// the config dir, otherwise relative to the current directory.
func openDB(configDir, filename string) (*sql.DB, error) {
	path := filename
	if configDir != "" && !filepath.IsAbs(filename) {
		path = filepath.Join(configDir, filename)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func newOAuthConfig(config *Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.Google.ClientID,
		ClientSecret: config.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarScope},
	}
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

func saveToken(db *sql.DB, accountName string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", accountName, tokenJSON)
	return err
}

func loadToken(db *sql.DB, accountName string) (*oauth2.Token, error) {
	var tokenJSON []byte
	err := db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", accountName).Scan(&tokenJSON)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("unmarshaling token: %w", err)
	}
	return &token, nil
}

// getClient returns an HTTP client authorised for accountName, asking the
// user for a new token when none is stored or the stored one was revoked.
func getClient(ctx context.Context, config *oauth2.Config, db *sql.DB, accountName string, log *logrus.Entry) (*http.Client, error) {
	token, err := loadToken(db, accountName)
	if errors.Is(err, sql.ErrNoRows) {
		log.WithField("account", accountName).Warn("no token found, obtaining a new one")
		return clientFromWeb(ctx, config, db, accountName)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving token: %w", err)
	}

	newToken, err := config.TokenSource(ctx, token).Token()
	if err != nil {
		if strings.Contains(err.Error(), "Token has been expired or revoked") {
			log.WithField("account", accountName).Warn("token expired or revoked, obtaining a new one")
			return clientFromWeb(ctx, config, db, accountName)
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		log.WithField("account", accountName).Info("token refreshed")
		if err := saveToken(db, accountName, newToken); err != nil {
			return nil, fmt.Errorf("saving token: %w", err)
		}
	}
	return config.Client(ctx, newToken), nil
}

func clientFromWeb(ctx context.Context, config *oauth2.Config, db *sql.DB, accountName string) (*http.Client, error) {
	token, err := getTokenFromWeb(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := saveToken(db, accountName, token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	return config.Client(ctx, token), nil
}
