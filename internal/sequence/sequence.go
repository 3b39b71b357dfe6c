// Package sequence discovers the frame files and authored keyframe
// profiles in a timelapse directory. The computation core never touches
// the filesystem itself; everything it needs is resolved here first.
package sequence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odemakov/rawtherapee-timelapse/internal/keyframe"
	"github.com/odemakov/rawtherapee-timelapse/internal/pp3"
)

var (
	// ErrNoRawFiles means the directory holds no RAW frames.
	ErrNoRawFiles = errors.New("no RAW files found")
	// ErrNoKeyframes means no authored settings files matched a RAW frame.
	ErrNoKeyframes = errors.New("no keyframe settings files found")
)

// Fallback source size when no keyframe carries usable dimensions
// (Nikon Z6 full frame, matching the camera this tool grew up with).
const (
	FallbackWidth  = 6056
	FallbackHeight = 4032
)

// Frame is one RAW file in the sequence. Index is the position in the
// name-sorted file list.
type Frame struct {
	Index        int
	RawPath      string
	SettingsPath string
	HasSettings  bool
	IsKeyframe   bool
}

// Sequence is the scanned directory state: every frame in order plus
// the authored keyframes found among them.
type Sequence struct {
	Dir       string
	Frames    []Frame
	Keyframes []keyframe.Keyframe
}

// Scan reads dir, orders the RAW files by name and loads every
// matching .pp3 sidecar as a keyframe. Settings parse failures abort
// the scan: a broken keyframe poisons the whole interpolation.
func Scan(dir string) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var rawNames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".nef") {
			rawNames = append(rawNames, e.Name())
		}
	}
	if len(rawNames) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRawFiles, dir)
	}
	sort.Strings(rawNames)

	seq := &Sequence{Dir: dir}
	for i, name := range rawNames {
		settingsPath := filepath.Join(dir, name+".pp3")
		_, statErr := os.Stat(settingsPath)

		frame := Frame{
			Index:        i,
			RawPath:      filepath.Join(dir, name),
			SettingsPath: settingsPath,
			HasSettings:  statErr == nil,
		}

		if frame.HasSettings {
			settings, err := pp3.Load(settingsPath)
			if err != nil {
				return nil, fmt.Errorf("keyframe %s: %w", name, err)
			}
			// Files this tool wrote on an earlier run are not keyframes;
			// they are regenerated with -force and skipped otherwise.
			if settings.IsGenerated() {
				seq.Frames = append(seq.Frames, frame)
				continue
			}
			temp, green, comp, err := settings.Scalars()
			if err != nil {
				return nil, fmt.Errorf("keyframe %s: %w", name, err)
			}
			frame.IsKeyframe = true
			seq.Keyframes = append(seq.Keyframes, keyframe.Keyframe{
				Index: i,
				Scalars: keyframe.Scalars{
					Temperature:  temp,
					Green:        green,
					Compensation: comp,
				},
				Settings: settings,
			})
		}

		seq.Frames = append(seq.Frames, frame)
	}

	if len(seq.Keyframes) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoKeyframes, dir)
	}
	return seq, nil
}

// Len returns the total frame count N.
func (s *Sequence) Len() int {
	return len(s.Frames)
}

// SourceDimensions extracts the original image size from the first
// keyframe that carries one. assumed reports whether the fallback had
// to be used.
func (s *Sequence) SourceDimensions() (width, height int, assumed bool) {
	for _, kf := range s.Keyframes {
		if w, h, ok := kf.Settings.SourceDimensions(); ok {
			return w, h, false
		}
	}
	return FallbackWidth, FallbackHeight, true
}

// Backup copies every existing settings file into a timestamped
// subdirectory and returns its path. Nothing to back up returns "".
func (s *Sequence) Backup() (string, error) {
	var existing []string
	for _, f := range s.Frames {
		if f.HasSettings {
			existing = append(existing, f.SettingsPath)
		}
	}
	if len(existing) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("rawtherapee-timelapse_%s", time.Now().Format("20060102_150405"))
	backupDir := filepath.Join(s.Dir, name)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	for _, path := range existing {
		if err := copyFile(path, filepath.Join(backupDir, filepath.Base(path))); err != nil {
			return "", fmt.Errorf("backup %s: %w", filepath.Base(path), err)
		}
	}
	return backupDir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
