package reconcile

import (
	"path"
	"strings"

	"drive-cache/core/remote"
	"drive-cache/core/utils"
)

// ItemKind is how an item is mirrored.
type ItemKind int

const (
	// KindContainer is a folder: walked, never cached.
	KindContainer ItemKind = iota
	// KindBinary is downloaded as-is.
	KindBinary
	// KindDocument is a spreadsheet fanned out to one JSON file per tab.
	KindDocument
	// KindUnsupported covers native formats with no byte content (docs,
	// slides, shortcuts). They are skipped.
	KindUnsupported
)

func (k ItemKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindBinary:
		return "binary"
	case KindDocument:
		return "document"
	case KindUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// Classify decides an item's kind from its MIME type.
func Classify(mimeType string) ItemKind {
	switch {
	case mimeType == remote.MimeFolder:
		return KindContainer
	case mimeType == remote.MimeSpreadsheet:
		return KindDocument
	case strings.HasPrefix(mimeType, "application/vnd.google-apps."):
		return KindUnsupported
	default:
		return KindBinary
	}
}

var mimeExtensions = map[string]string{
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"image/svg+xml":    ".svg",
	"application/json": ".json",
	"text/plain":       ".txt",
	"text/csv":         ".csv",
}

// binaryPath normalises the extension of known content types.
func binaryPath(logical, mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return utils.TrimExt(logical) + ext
	}
	return logical
}

const documentSuffix = ".gsheet"

func documentFolder(logical string) string {
	return logical + documentSuffix
}

func partPath(folder, part string) string {
	return path.Join(folder, utils.SanitizeName(part)+".json")
}

func partKey(id, part string) string {
	return id + ":" + part
}

// baseID strips the part suffix of a multi-part asset id.
func baseID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
