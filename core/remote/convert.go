package remote

import (
	"encoding/json"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const itemFields = "id, name, mimeType, modifiedTime, md5Checksum, size, parents, trashed"

func convertFile(f *drive.File) Item {
	item := Item{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		MD5:      f.Md5Checksum,
		Size:     f.Size,
		Parents:  f.Parents,
		Trashed:  f.Trashed,
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			item.ModifiedTime = t.UTC()
		}
	}
	return item
}

func convertChange(c *drive.Change) Change {
	ch := Change{
		ItemID:  c.FileId,
		Kind:    c.ChangeType,
		Removed: c.Removed,
	}
	if ch.Kind == "" {
		ch.Kind = ChangeKindFile
	}
	if c.File != nil && !c.Removed {
		item := convertFile(c.File)
		ch.Item = &item
	}
	return ch
}

// tabPayload is the JSON written for one spreadsheet tab.
type tabPayload struct {
	Range          string          `json:"range"`
	MajorDimension string          `json:"majorDimension"`
	Values         [][]interface{} `json:"values"`
}

func convertTab(vr *sheets.ValueRange) ([]byte, error) {
	values := vr.Values
	if values == nil {
		values = [][]interface{}{}
	}
	return json.MarshalIndent(tabPayload{
		Range:          vr.Range,
		MajorDimension: vr.MajorDimension,
		Values:         values,
	}, "", "  ")
}
