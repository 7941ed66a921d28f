package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/adapter/google"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/adapter/outlook"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/auth"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/report"
)

// Azure app registrations need a fixed redirect URI, Google loopback
// clients accept any port.
const outlookRedirectPort = 8085

// calendarProvider ties a credential provider to the adapter it authenticates.
type calendarProvider struct {
	Name  string
	Auth  *auth.Provider
	Trash report.Trash

	newService func(ctx context.Context, ts oauth2.TokenSource) (core.Service, error)
}

// Service authenticates and returns the calendar service.
func (p *calendarProvider) Service(ctx context.Context) (core.Service, error) {
	ts, err := p.Auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return p.newService(ctx, ts)
}

func newAuthProvider(name string) (*calendarProvider, error) {
	switch name {
	case "", "google":
		return newGoogleProvider()
	case "outlook":
		return newOutlookProvider()
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: google, outlook)", name)
	}
}

func newGoogleProvider() (*calendarProvider, error) {
	credsFile := expandPath(viper.GetString("credentials_file"))

	if _, err := os.Stat(credsFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("credentials file not found: %s\n\nCreate an OAuth client of type Desktop app in the Google Cloud console and download it as credentials.json", credsFile)
	}

	config, err := google.OAuthConfig(credsFile)
	if err != nil {
		return nil, err
	}

	flow := &auth.LocalServerFlow{
		ProviderName: "Google",
		AuthOptions:  []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce},
	}

	return &calendarProvider{
		Name:  "google",
		Auth:  newCredentialProvider(config, flow),
		Trash: report.GoogleTrash,
		newService: func(ctx context.Context, ts oauth2.TokenSource) (core.Service, error) {
			return google.NewGoogleAdapter(ctx, google.PrimaryCalendar, option.WithTokenSource(ts))
		},
	}, nil
}

func newOutlookProvider() (*calendarProvider, error) {
	clientID := viper.GetString("client_id")
	if clientID == "" {
		return nil, fmt.Errorf("client_id not configured for Outlook provider\n\nSet CALSWEEP_CLIENT_ID to your Azure app's client ID")
	}

	config := outlook.OAuthConfig(clientID, viper.GetString("tenant_id"))

	flow := &auth.LocalServerFlow{
		ProviderName: "Microsoft",
		Port:         outlookRedirectPort,
		AuthOptions:  []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "consent")},
	}

	return &calendarProvider{
		Name:  "outlook",
		Auth:  newCredentialProvider(config, flow),
		Trash: report.OutlookTrash,
		newService: func(_ context.Context, ts oauth2.TokenSource) (core.Service, error) {
			return outlook.NewOutlookAdapter(ts)
		},
	}, nil
}

func newCredentialProvider(config *oauth2.Config, flow *auth.LocalServerFlow) *auth.Provider {
	return &auth.Provider{
		Config:    config,
		Store:     auth.FileStore{Path: expandPath(viper.GetString("token_file"))},
		Authorize: flow.Token,
		Logger:    logger,
	}
}
