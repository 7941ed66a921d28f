package outlook

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// Scopes requested from the Microsoft identity platform.
var Scopes = []string{
	"https://graph.microsoft.com/Calendars.ReadWrite",
	"https://graph.microsoft.com/User.Read",
	"offline_access",
}

// tokenCredential bridges an oauth2 token source into the Azure SDK's
// TokenCredential interface, allowing the Microsoft Graph SDK to
// authenticate requests.
type tokenCredential struct {
	source oauth2.TokenSource
}

func (c *tokenCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.source.Token()
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{
		Token:     tok.AccessToken,
		ExpiresOn: tok.Expiry,
	}, nil
}

// OutlookAdapter implements core.Service for Microsoft Outlook / Office 365
// using the official Microsoft Graph SDK. It works on the user's default
// calendar.
type OutlookAdapter struct {
	client *msgraphsdk.GraphServiceClient
}

// OAuthConfig returns the OAuth2 configuration for Microsoft identity platform.
// tenantID defaults to "common".
func OAuthConfig(clientID, tenantID string) *oauth2.Config {
	if tenantID == "" {
		tenantID = "common"
	}
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: microsoft.AzureADEndpoint(tenantID),
		Scopes:   Scopes,
	}
}

// NewOutlookAdapter creates a Graph client authenticated by ts.
func NewOutlookAdapter(ts oauth2.TokenSource) (*OutlookAdapter, error) {
	cred := &tokenCredential{source: ts}
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{
		"https://graph.microsoft.com/.default",
	})
	if err != nil {
		return nil, fmt.Errorf("create graph client: %w", err)
	}
	return &OutlookAdapter{client: client}, nil
}

// isGone reports a 404 or 410 from Graph. Graph answers 404
// (ErrorItemNotFound) for an event that was already deleted.
func isGone(err error) bool {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		return goneStatus(odataErr.ResponseStatusCode)
	}
	var apiErr *abstractions.ApiError
	if errors.As(err, &apiErr) {
		return goneStatus(apiErr.ResponseStatusCode)
	}
	return false
}

func goneStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}
