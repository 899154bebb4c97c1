package snapshot

import "time"

const FormatVersion = 1

// Size is a surface's dimensions in host cells and, when the host knows
// them, in pixels.
type Size struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	PixelWidth  int `json:"pixel_width"`
	PixelHeight int `json:"pixel_height"`
}

type Position struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

// SessionRecord is the snapshot of a single surface.
type SessionRecord struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	CapturedAt time.Time `json:"captured_at"`
	Size
	Layout Node `json:"layout"`
}

type WorkspaceRecord struct {
	Version    int               `json:"version"`
	Name       string            `json:"name"`
	CapturedAt time.Time         `json:"captured_at"`
	Surfaces   []SurfaceSnapshot `json:"surfaces"`
}

type SurfaceSnapshot struct {
	Size
	Position
	Dominant bool `json:"dominant"`
	Layout   Node `json:"layout"`
}

// DominantIndex returns the index of the surface marked dominant, or 0
// when none is.
func (w WorkspaceRecord) DominantIndex() int {
	for i, s := range w.Surfaces {
		if s.Dominant {
			return i
		}
	}
	return 0
}

type RecordKind string

const (
	KindSession   RecordKind = "session"
	KindWorkspace RecordKind = "workspace"
)

type Index struct {
	Version    int               `json:"version"`
	Updated    time.Time         `json:"updated"`
	Sessions   map[string]Record `json:"sessions"`
	Workspaces map[string]Record `json:"workspaces"`
}

type Record struct {
	Name       string     `json:"name"`
	Kind       RecordKind `json:"kind"`
	File       string     `json:"file"`
	CapturedAt time.Time  `json:"captured_at"`
	Surfaces   int        `json:"surfaces"`
	Panes      int        `json:"panes"`
}
