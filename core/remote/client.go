package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var scopes = []string{drive.DriveReadonlyScope, sheets.SpreadsheetsReadonlyScope}

// DriveSource implements Source on Google Drive.
type DriveSource struct {
	drive   *drive.Service
	sheets  *sheets.Service
	driveID string
	policy  func() backoff.BackOff
	logger  *zap.Logger
}

var _ Source = (*DriveSource)(nil)

// NewDriveSource builds the Drive and Sheets clients from cfg.
func NewDriveSource(ctx context.Context, cfg Config, logger *zap.Logger) (*DriveSource, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(scopes...))
	case cfg.RefreshToken != "":
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}
		opts = append(opts, option.WithTokenSource(oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})))
	default:
		return nil, errors.New("google credentials missing: set GOOGLE_CREDENTIALS_FILE or GOOGLE_REFRESH_TOKEN")
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	maxElapsed := time.Duration(cfg.RetryMaxSeconds) * time.Second
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}

	return &DriveSource{
		drive:  driveSvc,
		sheets: sheetsSvc,
		policy: newPolicy(maxElapsed),
		logger: logger,
	}, nil
}

// Verify checks that folderID is a reachable folder. When it lives on a
// shared drive, change listing is restricted to that drive.
func (s *DriveSource) Verify(ctx context.Context, folderID string) error {
	if folderID == "" {
		return errors.New("watched folder id is empty")
	}

	f, err := withRetry(ctx, s.policy, func() (*drive.File, error) {
		return s.drive.Files.Get(folderID).
			Fields("id, name, mimeType, driveId").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	})
	if err != nil {
		return fmt.Errorf("failed to read watched folder %s: %w", folderID, err)
	}
	if f.MimeType != MimeFolder {
		return fmt.Errorf("watched item %s (%s) is not a folder", folderID, f.Name)
	}

	s.driveID = f.DriveId
	if s.driveID != "" {
		s.logger.Info("Watched folder lives on a shared drive", zap.String("drive_id", s.driveID))
	}
	return nil
}
