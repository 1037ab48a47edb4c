package manifest

import "time"

// Kind distinguishes plain files from spreadsheet tabs.
type Kind string

const (
	KindBinary Kind = "binary"
	KindSheet  Kind = "sheet"
)

// Asset is one cached file.
type Asset struct {
	ID           string    `json:"-"`
	Path         string    `json:"filename"`
	Kind         Kind      `json:"type"`
	Hash         string    `json:"hash"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modifiedTime"`
	URL          string    `json:"url"`
}

// Action is what happened to an asset during a pass.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
)

// Change is one entry of a broadcast change set.
type Change struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Action Action `json:"action"`
}

// Snapshot is a published, read-only view of the manifest.
type Snapshot struct {
	Version   int64            `json:"version"`
	UpdatedAt *time.Time       `json:"updatedAt"`
	Assets    map[string]Asset `json:"assets"`
}

// AssetURL is the download URL for a cache path.
func AssetURL(p string) string {
	return "/assets/" + p
}
