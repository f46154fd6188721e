package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CalendarFactory creates the remote provider configured for the login.
type CalendarFactory struct {
	config *Config
	db     *sql.DB
	log    *logrus.Entry
}

// NewCalendarFactory creates a new calendar factory instance
func NewCalendarFactory(config *Config, db *sql.DB, log *logrus.Entry) *CalendarFactory {
	return &CalendarFactory{
		config: config,
		db:     db,
		log:    log.WithField("component", "factory"),
	}
}

// CreateCalendarProvider connects to the provider named by the [login]
// section. For Google the username selects the stored OAuth token; for
// CalDAV non-empty credentials override the [login] password and then the
// ones of the server entry.
func (cf *CalendarFactory) CreateCalendarProvider(ctx context.Context, username, password string) (CalendarProvider, error) {
	providerType := cf.config.Login.Provider
	switch providerType {
	case "google":
		client, err := getClient(ctx, newOAuthConfig(cf.config), cf.db, username, cf.log)
		if err != nil {
			return nil, fmt.Errorf("error authorising Google account %s: %w", username, err)
		}
		return NewGoogleCalendarProvider(ctx, client)

	case "caldav":
		serverName := cf.config.Login.Server
		if serverName == "" {
			return nil, fmt.Errorf("no CalDAV server configured for login")
		}

		server, ok := cf.config.CalDAVs[serverName]
		if !ok {
			return nil, fmt.Errorf("CalDAV server '%s' not found in configuration", serverName)
		}
		if username == "" {
			username = server.Username
		}
		if password == "" {
			password = cf.config.Login.Password
		}
		if password == "" {
			password = server.Password
		}

		cf.log.WithField("server", server.ServerURL).Debug("connecting to CalDAV server")
		return NewCalDAVProvider(ctx, server.ServerURL, username, password)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// ValidateCalendarAccess checks if the provided calendar ID is accessible
func (cf *CalendarFactory) ValidateCalendarAccess(provider CalendarProvider, calendarID string) error {
	if err := provider.GetCalendar(calendarID); err != nil {
		cf.log.WithError(err).WithField("calendar", calendarID).Warn("calendar not accessible")
		return fmt.Errorf("cannot access calendar %s: %w", calendarID, err)
	}
	return nil
}
