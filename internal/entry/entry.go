package entry

import (
	"os"
	"time"
)

// Kind represents the type of harvested filesystem entry.
type Kind uint8

const (
	KindFile    Kind = 0
	KindDir     Kind = 1
	KindSymlink Kind = 2
	KindOther   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// KindFromMode derives the Kind from an os.FileMode.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// FileRecord is one harvested entry of a component's fileset. Path is
// always relative to the harvest root and uses forward slashes.
type FileRecord struct {
	Path    string
	Name    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

// ScanError represents an error encountered while walking a component.
type ScanError struct {
	Path    string
	Message string
}

// Harvest lifecycle states as stored in harvest_meta.status.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusCanceled = "canceled"
)

// Harvest holds metadata about one harvest run. ReleaseDate is nil when
// no plausible date was found in the component's metadata files. A
// canceled harvest keeps its partial fileset with Status set to
// StatusCanceled.
type Harvest struct {
	ID          string
	RootPath    string
	StartTime   time.Time
	EndTime     time.Time
	FileCount   int64
	DirCount    int64
	TotalSize   int64
	ErrorCount  int64
	ReleaseDate *time.Time
	Status      string
}
