package live

import "time"

// Source identifies where a trigger came from. It selects the debounce window.
type Source int

const (
	SourceRefresh Source = iota
	SourceFilter
	SourceInput

	numSources
)

func (s Source) String() string {
	switch s {
	case SourceRefresh:
		return "refresh"
	case SourceFilter:
		return "filter-change"
	case SourceInput:
		return "input-change"
	default:
		return "unknown"
	}
}

// Windows holds the debounce window of each source.
type Windows struct {
	Refresh time.Duration
	Filter  time.Duration
	Input   time.Duration
}

func DefaultWindows() Windows {
	return Windows{
		Refresh: 50 * time.Millisecond,
		Filter:  50 * time.Millisecond,
		Input:   200 * time.Millisecond,
	}
}

func (w Windows) For(src Source) time.Duration {
	switch src {
	case SourceRefresh:
		return w.Refresh
	case SourceFilter:
		return w.Filter
	default:
		return w.Input
	}
}
