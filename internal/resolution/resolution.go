// Package resolution maps output resolution tags to pixel dimensions.
package resolution

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownResolutionTag marks a tag missing from the table.
var ErrUnknownResolutionTag = errors.New("unknown output resolution")

// Resolution is an output target. Width:Height is exactly 16:9 for
// every table entry.
type Resolution struct {
	Tag    string
	Width  int
	Height int
}

var table = map[string]Resolution{
	"1080p": {Tag: "1080p", Width: 1920, Height: 1080},
	"2k":    {Tag: "2k", Width: 2048, Height: 1152},
	"4k":    {Tag: "4k", Width: 3840, Height: 2160},
	"5k":    {Tag: "5k", Width: 5120, Height: 2880},
	"6k":    {Tag: "6k", Width: 6144, Height: 3456},
	"8k":    {Tag: "8k", Width: 7680, Height: 4320},
}

// Lookup resolves a resolution tag.
func Lookup(tag string) (Resolution, error) {
	r, ok := table[tag]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownResolutionTag, tag)
	}
	return r, nil
}

// Tags lists the known tags, sorted.
func Tags() []string {
	tags := make([]string, 0, len(table))
	for tag := range table {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
