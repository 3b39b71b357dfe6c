// Package pp3 reads and writes RawTherapee processing profiles, the
// sectioned key=value sidecar files that carry per-frame develop settings.
package pp3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// ErrMalformedField marks a scalar value that is present but unparsable.
var ErrMalformedField = errors.New("malformed settings field")

// Defaults used when a scalar is absent from a keyframe profile.
const (
	DefaultTemperature  = 5500.0
	DefaultGreen        = 1.0
	DefaultCompensation = 0.0
)

func init() {
	// RawTherapee expects Key=value without padding.
	ini.PrettyFormat = false
}

// pp3 values may contain ';' (curve point lists) and ':' (ratios),
// so inline comments and the ':' delimiter must be disabled.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

// File is one parsed pp3 profile. Section and key case is preserved,
// unknown sections pass through untouched.
type File struct {
	src *ini.File
}

// Load parses a pp3 file from disk.
func Load(path string) (*File, error) {
	src, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &File{src: src}, nil
}

// Parse parses a pp3 profile from raw bytes.
func Parse(data []byte) (*File, error) {
	src, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}
	return &File{src: src}, nil
}

// Clone returns a deep copy, built by re-parsing the serialized profile.
func (f *File) Clone() *File {
	var buf bytes.Buffer
	if _, err := f.src.WriteTo(&buf); err != nil {
		return &File{src: ini.Empty(loadOptions)}
	}
	clone, err := Parse(buf.Bytes())
	if err != nil {
		return &File{src: ini.Empty(loadOptions)}
	}
	return clone
}

// Scalars returns the interpolatable values: white balance temperature,
// green tint and exposure compensation. Absent values fall back to
// defaults; present but unparsable values fail with ErrMalformedField.
func (f *File) Scalars() (temp, green, comp float64, err error) {
	temp, err = f.scalar("White Balance", "Temperature", DefaultTemperature)
	if err != nil {
		return 0, 0, 0, err
	}
	green, err = f.scalar("White Balance", "Green", DefaultGreen)
	if err != nil {
		return 0, 0, 0, err
	}
	comp, err = f.scalar("Exposure", "Compensation", DefaultCompensation)
	if err != nil {
		return 0, 0, 0, err
	}
	return temp, green, comp, nil
}

func (f *File) scalar(section, key string, fallback float64) (float64, error) {
	sec, err := f.src.GetSection(section)
	if err != nil {
		return fallback, nil
	}
	if !sec.HasKey(key) {
		return fallback, nil
	}
	v, err := sec.Key(key).Float64()
	if err != nil {
		return 0, fmt.Errorf("[%s] %s=%q: %w", section, key, sec.Key(key).String(), ErrMalformedField)
	}
	return v, nil
}

// SetScalars writes the interpolated values in RawTherapee's formats:
// Temperature as an integer, Green and Compensation with 3 decimals.
func (f *File) SetScalars(temp, green, comp float64) {
	f.set("White Balance", "Temperature", strconv.Itoa(int(temp)))
	f.set("White Balance", "Green", fmt.Sprintf("%.3f", green))
	f.set("Exposure", "Compensation", fmt.Sprintf("%.3f", comp))
}

// SetCrop enables a fixed-ratio 16:9 crop at the given rect.
func (f *File) SetCrop(x, y, w, h int) {
	f.set("Crop", "Enabled", "true")
	f.set("Crop", "X", strconv.Itoa(x))
	f.set("Crop", "Y", strconv.Itoa(y))
	f.set("Crop", "W", strconv.Itoa(w))
	f.set("Crop", "H", strconv.Itoa(h))
	f.set("Crop", "FixedRatio", "true")
	f.set("Crop", "Ratio", "16:9")
	f.set("Crop", "Orientation", "As Image")
	f.set("Crop", "Guide", "Frame")
}

// SetResize targets the cropped area at the given output dimensions.
func (f *File) SetResize(width, height int) {
	f.set("Resize", "Enabled", "true")
	f.set("Resize", "Scale", "1")
	f.set("Resize", "AppliesTo", "Cropped area")
	f.set("Resize", "Method", "Lanczos")
	f.set("Resize", "DataSpecified", "3")
	f.set("Resize", "Width", strconv.Itoa(width))
	f.set("Resize", "Height", strconv.Itoa(height))
	f.set("Resize", "LongEdge", strconv.Itoa(max(width, height)))
	f.set("Resize", "ShortEdge", strconv.Itoa(min(width, height)))
}

// Generator marker. Written into every profile this tool produces so
// a later run can tell generated frames from authored keyframes.
// RawTherapee drops unknown keys on save, so a profile the user edits
// afterwards counts as authored again.
const (
	generatorSection = "Version"
	generatorKey     = "GeneratedBy"
	generatorValue   = "rt-timelapse"
)

// MarkGenerated stamps the profile as produced by this tool.
func (f *File) MarkGenerated() {
	f.set(generatorSection, generatorKey, generatorValue)
}

// IsGenerated reports whether the profile carries the generator stamp.
func (f *File) IsGenerated() bool {
	v, ok := f.Get(generatorSection, generatorKey)
	return ok && v == generatorValue
}

func (f *File) set(section, key, value string) {
	sec := f.src.Section(section)
	sec.Key(key).SetValue(value)
}

// Get returns the raw value for a key, and whether it exists.
func (f *File) Get(section, key string) (string, bool) {
	sec, err := f.src.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// SetSourceDimensions records the original image size so later runs
// can recover it after crop has been enabled.
func (f *File) SetSourceDimensions(width, height int) {
	f.set(generatorSection, "SourceWidth", strconv.Itoa(width))
	f.set(generatorSection, "SourceHeight", strconv.Itoa(height))
}

// SourceDimensions extracts the original image size. A recorded
// SourceWidth/SourceHeight stamp wins; otherwise the Crop section is
// used, which is only trustworthy while crop is disabled: then W and H
// hold the full image dimensions.
func (f *File) SourceDimensions() (width, height int, ok bool) {
	if ws, wok := f.Get(generatorSection, "SourceWidth"); wok {
		if hs, hok := f.Get(generatorSection, "SourceHeight"); hok {
			w, werr := strconv.Atoi(ws)
			h, herr := strconv.Atoi(hs)
			if werr == nil && herr == nil && w > 0 && h > 0 {
				return w, h, true
			}
		}
	}

	enabled, _ := f.Get("Crop", "Enabled")
	if enabled == "true" {
		return 0, 0, false
	}
	ws, wok := f.Get("Crop", "W")
	hs, hok := f.Get("Crop", "H")
	if !wok || !hok {
		return 0, 0, false
	}
	w, werr := strconv.Atoi(ws)
	h, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// MergeMissing copies sections and keys present in other but absent
// here. Existing values are never overwritten.
func (f *File) MergeMissing(other *File) {
	if other == nil {
		return
	}
	for _, osec := range other.src.Sections() {
		if osec.Name() == ini.DefaultSection && len(osec.Keys()) == 0 {
			continue
		}
		sec := f.src.Section(osec.Name())
		for _, key := range osec.Keys() {
			if !sec.HasKey(key.Name()) {
				sec.Key(key.Name()).SetValue(key.Value())
			}
		}
	}
}

// WriteTo serializes the profile.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	return f.src.WriteTo(w)
}

// Save writes the profile to disk.
func (f *File) Save(path string) error {
	var buf bytes.Buffer
	if _, err := f.src.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
