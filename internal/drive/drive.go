// Package drive uploads generated workbooks to Google Drive unconverted.
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"touch_daily/internal/gauth"
	"touch_daily/internal/retry"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const resultFields = "id, webViewLink, webContentLink"

type Client struct {
	service *drive.Service
	retry   retry.Config
}

func NewClient(ctx context.Context, retryConfig retry.Config, opts ...option.ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{service: service, retry: retryConfig}, nil
}

func NewServiceAccountClient(ctx context.Context, credentialsFile string, retryConfig retry.Config) (*Client, error) {
	creds, err := gauth.ServiceAccount(ctx, credentialsFile, drive.DriveScope)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, retryConfig, creds)
}

type UploadOptions struct {
	// Name in Drive; the file's base name when empty.
	Name     string
	FolderID string
	// Replace updates the first non-trashed file with the same name in the
	// folder instead of creating a new one.
	Replace bool
}

type UploadResult struct {
	ID             string
	WebViewLink    string
	WebContentLink string
	Replaced       bool
	Elapsed        time.Duration
}

// Upload sends the workbook at path to Drive.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (*UploadResult, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("workbook not found: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}

	log.Info().
		Str("path", path).
		Str("name", name).
		Str("folder", opts.FolderID).
		Bool("replace", opts.Replace).
		Msg("Uploading workbook to Drive")

	existingID := ""
	if opts.Replace {
		id, err := c.findExisting(ctx, name, opts.FolderID)
		if err != nil {
			return nil, err
		}
		existingID = id
	}

	file, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*drive.File, error) {
		media, err := os.Open(path)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		defer media.Close()

		var f *drive.File
		if existingID != "" {
			f, err = c.service.Files.Update(existingID, &drive.File{}).
				Media(media, googleapi.ContentType(XLSXMimeType)).
				Fields(resultFields).
				SupportsAllDrives(true).
				Context(ctx).
				Do()
		} else {
			meta := &drive.File{Name: name, MimeType: XLSXMimeType}
			if opts.FolderID != "" {
				meta.Parents = []string{opts.FolderID}
			}
			f, err = c.service.Files.Create(meta).
				Media(media, googleapi.ContentType(XLSXMimeType)).
				Fields(resultFields).
				SupportsAllDrives(true).
				Context(ctx).
				Do()
		}
		return f, gauth.Classify(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload workbook: %w", err)
	}

	res := &UploadResult{
		ID:             file.Id,
		WebViewLink:    file.WebViewLink,
		WebContentLink: file.WebContentLink,
		Replaced:       existingID != "",
		Elapsed:        time.Since(start),
	}
	log.Info().
		Str("id", res.ID).
		Str("view", res.WebViewLink).
		Bool("replaced", res.Replaced).
		Dur("elapsed", res.Elapsed).
		Msg("Workbook uploaded")
	return res, nil
}

func (c *Client) findExisting(ctx context.Context, name, folderID string) (string, error) {
	q := ReplaceQuery(name, folderID)
	list, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (*drive.FileList, error) {
		l, err := c.service.Files.List().
			Q(q).
			Fields("files(id,name)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).
			Do()
		return l, gauth.Classify(err)
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for existing file: %w", err)
	}
	if len(list.Files) == 0 {
		log.Debug().Str("name", name).Msg("No existing file to replace")
		return "", nil
	}
	return list.Files[0].Id, nil
}

// ReplaceQuery is the Drive search for a non-trashed workbook named name,
// restricted to folderID when set.
func ReplaceQuery(name, folderID string) string {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), XLSXMimeType)
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderID))
	}
	return q
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
