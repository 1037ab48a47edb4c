package remote

import (
	"context"
	"errors"
	"time"
)

const (
	MimeFolder      = "application/vnd.google-apps.folder"
	MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

	// ChangeKindFile marks a change record about a file; shared-drive level
	// records carry ChangeKindDrive.
	ChangeKindFile  = "file"
	ChangeKindDrive = "drive"
)

var (
	// ErrTokenInvalid means the remote no longer accepts the stored change token.
	ErrTokenInvalid = errors.New("remote: change token rejected")
	// ErrNotFound means the item does not exist or is not visible.
	ErrNotFound = errors.New("remote: item not found")
)

// Item is the remote metadata of a file or folder.
type Item struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime time.Time
	MD5          string
	Size         int64
	Parents      []string
	Trashed      bool
}

// Change is one record of the change feed.
type Change struct {
	ItemID  string
	Kind    string
	Removed bool
	// Item is nil for removals.
	Item *Item
}

// ChangePage is everything the feed holds after a token.
type ChangePage struct {
	Changes []Change
	// NextToken is the cursor to resume from.
	NextToken string
}

// Part is one tab of a multi-part document.
type Part struct {
	Name string
	Data []byte
}

// WatchRequest describes a push channel to register.
type WatchRequest struct {
	ID      string
	Address string
	Token   string
	// PageToken is the change cursor the channel watches from.
	PageToken string
	TTL       time.Duration
}

// Channel is a registered push channel.
type Channel struct {
	ID         string
	ResourceID string
	Token      string
	Expiration time.Time
}

// Source is the remote change source.
type Source interface {
	// ListChildren returns the non-trashed direct children of a folder.
	ListChildren(ctx context.Context, folderID string) ([]Item, error)
	// GetItem returns an item's metadata or ErrNotFound.
	GetItem(ctx context.Context, id string) (*Item, error)
	// FetchContent downloads a binary item.
	FetchContent(ctx context.Context, item Item) ([]byte, error)
	// FetchParts renders every tab of a spreadsheet as JSON.
	FetchParts(ctx context.Context, item Item) ([]Part, error)
	// StartToken returns a cursor positioned at "now".
	StartToken(ctx context.Context) (string, error)
	// ListChanges returns all changes after token, following pagination.
	ListChanges(ctx context.Context, token string) (ChangePage, error)
	// Watch registers a push channel.
	Watch(ctx context.Context, req WatchRequest) (*Channel, error)
	// StopWatch stops a push channel.
	StopWatch(ctx context.Context, ch Channel) error
}
