package remote

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const pageSize = 100

func (s *DriveSource) ListChildren(ctx context.Context, folderID string) ([]Item, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	var items []Item
	pageToken := ""
	for {
		list, err := withRetry(ctx, s.policy, func() (*drive.FileList, error) {
			return s.drive.Files.List().
				Q(query).
				Fields("nextPageToken, files(" + itemFields + ")").
				PageSize(pageSize).
				PageToken(pageToken).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Context(ctx).
				Do()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}
		for _, f := range list.Files {
			items = append(items, convertFile(f))
		}
		if list.NextPageToken == "" {
			return items, nil
		}
		pageToken = list.NextPageToken
	}
}

func (s *DriveSource) GetItem(ctx context.Context, id string) (*Item, error) {
	f, err := withRetry(ctx, s.policy, func() (*drive.File, error) {
		return s.drive.Files.Get(id).
			Fields(itemFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	item := convertFile(f)
	return &item, nil
}

func (s *DriveSource) FetchContent(ctx context.Context, item Item) ([]byte, error) {
	data, err := withRetry(ctx, s.policy, func() ([]byte, error) {
		resp, err := s.drive.Files.Get(item.ID).
			SupportsAllDrives(true).
			Context(ctx).
			Download()
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", item.ID, err)
	}
	return data, nil
}

func (s *DriveSource) FetchParts(ctx context.Context, item Item) ([]Part, error) {
	book, err := withRetry(ctx, s.policy, func() (*sheets.Spreadsheet, error) {
		return s.sheets.Spreadsheets.Get(item.ID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", item.ID, err)
	}

	titles := make([]string, 0, len(book.Sheets))
	ranges := make([]string, 0, len(book.Sheets))
	for _, sh := range book.Sheets {
		if sh.Properties == nil {
			continue
		}
		titles = append(titles, sh.Properties.Title)
		ranges = append(ranges, "'"+strings.ReplaceAll(sh.Properties.Title, "'", "''")+"'")
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	resp, err := withRetry(ctx, s.policy, func() (*sheets.BatchGetValuesResponse, error) {
		return s.sheets.Spreadsheets.Values.BatchGet(item.ID).
			Ranges(ranges...).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read values of %s: %w", item.ID, err)
	}

	// Value ranges come back in request order.
	parts := make([]Part, 0, len(resp.ValueRanges))
	for i, vr := range resp.ValueRanges {
		if i >= len(titles) {
			break
		}
		data, err := convertTab(vr)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tab %s of %s: %w", titles[i], item.ID, err)
		}
		parts = append(parts, Part{Name: titles[i], Data: data})
	}
	return parts, nil
}

func (s *DriveSource) StartToken(ctx context.Context) (string, error) {
	tok, err := withRetry(ctx, s.policy, func() (*drive.StartPageToken, error) {
		call := s.drive.Changes.GetStartPageToken().SupportsAllDrives(true).Context(ctx)
		if s.driveID != "" {
			call = call.DriveId(s.driveID)
		}
		return call.Do()
	})
	if err != nil {
		return "", fmt.Errorf("failed to get start page token: %w", err)
	}
	return tok.StartPageToken, nil
}

func (s *DriveSource) ListChanges(ctx context.Context, token string) (ChangePage, error) {
	var page ChangePage
	pageToken := token
	for {
		list, err := withRetry(ctx, s.policy, func() (*drive.ChangeList, error) {
			call := s.drive.Changes.List(pageToken).
				Fields("nextPageToken, newStartPageToken, changes(changeType, fileId, removed, file(" + itemFields + "))").
				PageSize(pageSize).
				IncludeRemoved(true).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Context(ctx)
			if s.driveID != "" {
				call = call.DriveId(s.driveID)
			}
			return call.Do()
		})
		if err != nil {
			if tokenRejected(err) {
				return ChangePage{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
			}
			return ChangePage{}, fmt.Errorf("failed to list changes: %w", err)
		}

		for _, c := range list.Changes {
			page.Changes = append(page.Changes, convertChange(c))
		}

		switch {
		case list.NewStartPageToken != "":
			page.NextToken = list.NewStartPageToken
			return page, nil
		case list.NextPageToken == "":
			page.NextToken = pageToken
			return page, nil
		}
		pageToken = list.NextPageToken
	}
}

func (s *DriveSource) Watch(ctx context.Context, req WatchRequest) (*Channel, error) {
	body := &drive.Channel{
		Id:      req.ID,
		Type:    "web_hook",
		Address: req.Address,
		Token:   req.Token,
	}
	if req.TTL > 0 {
		body.Expiration = time.Now().Add(req.TTL).UnixMilli()
	}

	resp, err := withRetry(ctx, s.policy, func() (*drive.Channel, error) {
		call := s.drive.Changes.Watch(req.PageToken, body).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if s.driveID != "" {
			call = call.DriveId(s.driveID)
		}
		return call.Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register push channel: %w", err)
	}

	s.logger.Debug("Push channel registered",
		zap.String("channel_id", resp.Id),
		zap.String("resource_id", resp.ResourceId))

	return &Channel{
		ID:         resp.Id,
		ResourceID: resp.ResourceId,
		Token:      req.Token,
		Expiration: time.UnixMilli(resp.Expiration),
	}, nil
}

func (s *DriveSource) StopWatch(ctx context.Context, ch Channel) error {
	err := s.drive.Channels.Stop(&drive.Channel{Id: ch.ID, ResourceId: ch.ResourceID}).Context(ctx).Do()
	if err != nil && !notFound(err) {
		return fmt.Errorf("failed to stop push channel %s: %w", ch.ID, err)
	}
	return nil
}
