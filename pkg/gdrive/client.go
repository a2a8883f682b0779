// Package gdrive is a thin facade over the Google Drive v3 API covering the
// calls the CLI needs: listing files, creating, listing and updating
// permissions, and reading the signed-in user. API failures are mapped to the
// sentinel errors below and wrapped so the original *googleapi.Error is still
// reachable with errors.As.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tonimelisma/gdrive-ownership/internal/logger"
)

var (
	ErrReauthRequired   = errors.New("re-authentication required")
	ErrAccessDenied     = errors.New("access denied")
	ErrRetryLater       = errors.New("retry later")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrResourceNotFound = errors.New("resource not found")
)

// Field projections requested from the API.
const (
	fileListFields       = "nextPageToken, files(id, name, owners(permissionId, emailAddress, displayName))"
	permissionFields     = "id, type, role, emailAddress, displayName, pendingOwner"
	permissionListFields = "nextPageToken, permissions(" + permissionFields + ")"
	aboutFields          = "user(displayName, emailAddress, permissionId)"
)

// Client is a Drive API client bound to one authorized HTTP client.
type Client struct {
	service *drive.Service
	logger  logger.Logger
}

// NewClient creates a Client that sends requests through httpClient, which is
// expected to carry OAuth2 credentials. Extra options (for example
// option.WithEndpoint in tests) are appended.
func NewClient(ctx context.Context, httpClient *http.Client, log logger.Logger, opts ...option.ClientOption) (*Client, error) {
	if log == nil {
		log = logger.NoopLogger{}
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Client{service: service, logger: log}, nil
}

// mapError attaches the matching sentinel to an API error. op names the call
// for the error message.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if sentinel := sentinelForStatus(apiErr); sentinel != nil {
			return fmt.Errorf("%s: %w: %w", op, sentinel, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%s: %w: %w", op, ErrReauthRequired, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func sentinelForStatus(apiErr *googleapi.Error) error {
	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return ErrReauthRequired
	case apiErr.Code == http.StatusForbidden && isRateLimited(apiErr):
		return ErrRetryLater
	case apiErr.Code == http.StatusForbidden:
		return ErrAccessDenied
	case apiErr.Code == http.StatusNotFound:
		return ErrResourceNotFound
	case apiErr.Code == http.StatusBadRequest:
		return ErrInvalidRequest
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= http.StatusInternalServerError:
		return ErrRetryLater
	}
	return nil
}

// Drive reports per-user and per-project quota exhaustion as 403.
func isRateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "sharingRateLimitExceeded":
			return true
		}
	}
	return false
}

// AboutUser returns the signed-in user.
func (c *Client) AboutUser(ctx context.Context) (User, error) {
	about, err := c.service.About.Get().Fields(aboutFields).Context(ctx).Do()
	if err != nil {
		return User{}, mapError("getting account information", err)
	}
	if about.User == nil {
		return User{}, nil
	}
	return User{
		DisplayName:  about.User.DisplayName,
		EmailAddress: about.User.EmailAddress,
		PermissionID: about.User.PermissionId,
	}, nil
}
