// Package gauth builds Google API client options from a service account key.
package gauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"touch_daily/internal/retry"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ServiceAccount reads the JSON key at path and returns a client option
// authorised for scopes.
func ServiceAccount(ctx context.Context, path string, scopes ...string) (option.ClientOption, error) {
	if path == "" {
		return nil, errors.New("service account path is empty (set GOOGLE_SA_JSON or --creds)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return option.WithCredentials(creds), nil
}

// Classify marks Google API errors that will not succeed on retry as
// permanent: client errors other than 429.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) &&
		apiErr.Code >= http.StatusBadRequest && apiErr.Code < http.StatusInternalServerError &&
		apiErr.Code != http.StatusTooManyRequests {
		return retry.Permanent(err)
	}
	return err
}
