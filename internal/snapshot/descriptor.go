package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags the content shown in a leaf pane.
type Kind string

const (
	KindFile              Kind = "file"
	KindPaginatedDocument Kind = "paginated-document"
	KindIndexedDocument   Kind = "indexed-document"
	KindDirectoryListing  Kind = "directory"
	KindNamedSurface      Kind = "named-surface"
)

// Kinds lists every content kind in a fixed order.
var Kinds = []Kind{KindFile, KindPaginatedDocument, KindIndexedDocument, KindDirectoryListing, KindNamedSurface}

// Descriptor identifies a content unit well enough to reopen it later.
// Kind selects which of the remaining fields are meaningful:
//
//	file                Path, Cursor
//	paginated-document  Path, Page, Slice, Scale
//	indexed-document    Path, Section, Cursor
//	directory           Path, Cursor
//	named-surface       Name, NamedKind
type Descriptor struct {
	Kind      Kind      `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Cursor    int       `json:"cursor,omitempty"`
	Page      int       `json:"page,omitempty"`
	Slice     []float64 `json:"slice,omitempty"`
	Scale     *float64  `json:"scale,omitempty"`
	Section   int       `json:"section,omitempty"`
	Name      string    `json:"name,omitempty"`
	NamedKind string    `json:"named_kind,omitempty"`
}

func File(path string, cursor int) Descriptor {
	return Descriptor{Kind: KindFile, Path: path, Cursor: cursor}
}

func PaginatedDocument(path string, page int, slice []float64, scale *float64) Descriptor {
	return Descriptor{Kind: KindPaginatedDocument, Path: path, Page: page, Slice: slice, Scale: scale}
}

func IndexedDocument(path string, section, cursor int) Descriptor {
	return Descriptor{Kind: KindIndexedDocument, Path: path, Section: section, Cursor: cursor}
}

func DirectoryListing(path string, cursor int) Descriptor {
	return Descriptor{Kind: KindDirectoryListing, Path: path, Cursor: cursor}
}

func NamedSurface(name, kind string) Descriptor {
	return Descriptor{Kind: KindNamedSurface, Name: name, NamedKind: kind}
}

var errNoPath = errors.New("missing path")

// Validate reports whether d carries the identifying fields its kind needs.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindFile, KindIndexedDocument, KindDirectoryListing:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("%s: %w", d.Kind, errNoPath)
		}
	case KindPaginatedDocument:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("%s: %w", d.Kind, errNoPath)
		}
		if d.Page < 1 {
			return fmt.Errorf("%s: page %d out of range", d.Kind, d.Page)
		}
	case KindNamedSurface:
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%s: missing name", d.Kind)
		}
	default:
		return fmt.Errorf("unknown content kind %q", d.Kind)
	}
	if d.Cursor < 0 || d.Section < 0 {
		return fmt.Errorf("%s: negative offset", d.Kind)
	}
	return nil
}

func (d Descriptor) String() string {
	if d.Kind == KindNamedSurface {
		return fmt.Sprintf("%s(%s:%s)", d.Kind, d.NamedKind, d.Name)
	}
	return fmt.Sprintf("%s(%s)", d.Kind, d.Path)
}
