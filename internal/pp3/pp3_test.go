package pp3

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `[Version]
AppVersion=5.8
Version=346

[White Balance]
Enabled=true
Setting=Custom
Temperature=5200
Green=1.012

[Exposure]
Auto=false
Compensation=0.450
Curve=1;0.000;0.000;0.125;0.150;1.000;1.000;

[Crop]
Enabled=false
X=0
Y=0
W=6000
H=4000

[Sharpening]
Enabled=true
Amount=200
`

func parseSample(t *testing.T) *File {
	t.Helper()
	f, err := Parse([]byte(sampleProfile))
	require.NoError(t, err)
	return f
}

func TestScalars(t *testing.T) {
	f := parseSample(t)

	temp, green, comp, err := f.Scalars()
	require.NoError(t, err)
	assert.Equal(t, 5200.0, temp)
	assert.Equal(t, 1.012, green)
	assert.Equal(t, 0.45, comp)
}

func TestScalarsDefaults(t *testing.T) {
	f, err := Parse([]byte("[Version]\nAppVersion=5.8\n"))
	require.NoError(t, err)

	temp, green, comp, err := f.Scalars()
	require.NoError(t, err)
	assert.Equal(t, DefaultTemperature, temp)
	assert.Equal(t, DefaultGreen, green)
	assert.Equal(t, DefaultCompensation, comp)
}

func TestScalarsMalformed(t *testing.T) {
	f, err := Parse([]byte("[White Balance]\nTemperature=warm\n"))
	require.NoError(t, err)

	_, _, _, err = f.Scalars()
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestSetScalarsFormats(t *testing.T) {
	f := parseSample(t)
	f.SetScalars(5533.7, 1.2, -0.5)

	v, ok := f.Get("White Balance", "Temperature")
	require.True(t, ok)
	assert.Equal(t, "5533", v, "temperature written as integer")

	v, _ = f.Get("White Balance", "Green")
	assert.Equal(t, "1.200", v)

	v, _ = f.Get("Exposure", "Compensation")
	assert.Equal(t, "-0.500", v)
}

func TestSetCrop(t *testing.T) {
	f := parseSample(t)
	f.SetCrop(0, 312, 6000, 3375)

	checks := map[string]string{
		"Enabled":     "true",
		"X":           "0",
		"Y":           "312",
		"W":           "6000",
		"H":           "3375",
		"FixedRatio":  "true",
		"Ratio":       "16:9",
		"Orientation": "As Image",
		"Guide":       "Frame",
	}
	for key, want := range checks {
		v, ok := f.Get("Crop", key)
		require.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
}

func TestSetResize(t *testing.T) {
	f := parseSample(t)
	f.SetResize(3840, 2160)

	checks := map[string]string{
		"Enabled":       "true",
		"Width":         "3840",
		"Height":        "2160",
		"LongEdge":      "3840",
		"ShortEdge":     "2160",
		"AppliesTo":     "Cropped area",
		"Method":        "Lanczos",
		"DataSpecified": "3",
		"Scale":         "1",
	}
	for key, want := range checks {
		v, ok := f.Get("Resize", key)
		require.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
}

func TestSourceDimensions(t *testing.T) {
	f := parseSample(t)

	w, h, ok := f.SourceDimensions()
	require.True(t, ok)
	assert.Equal(t, 6000, w)
	assert.Equal(t, 4000, h)

	// Once crop is enabled, W/H no longer mean the full image.
	f.SetCrop(0, 312, 6000, 3375)
	_, _, ok = f.SourceDimensions()
	assert.False(t, ok)

	// Unless the original size was stamped in.
	f.SetSourceDimensions(6000, 4000)
	w, h, ok = f.SourceDimensions()
	require.True(t, ok)
	assert.Equal(t, 6000, w)
	assert.Equal(t, 4000, h)
}

func TestGeneratedStamp(t *testing.T) {
	f := parseSample(t)
	assert.False(t, f.IsGenerated())

	f.MarkGenerated()
	assert.True(t, f.IsGenerated())
}

func TestCloneIsIndependent(t *testing.T) {
	f := parseSample(t)
	clone := f.Clone()

	clone.SetScalars(9000, 1.9, 2)

	v, _ := f.Get("White Balance", "Temperature")
	assert.Equal(t, "5200", v, "original untouched")
	v, _ = clone.Get("White Balance", "Temperature")
	assert.Equal(t, "9000", v)
}

func TestMergeMissing(t *testing.T) {
	base := parseSample(t)
	other, err := Parse([]byte("[White Balance]\nTemperature=9999\n[Vignetting]\nAmount=-30\n"))
	require.NoError(t, err)

	base.MergeMissing(other)

	// Existing keys keep their value.
	v, _ := base.Get("White Balance", "Temperature")
	assert.Equal(t, "5200", v)
	// New sections carry over.
	v, ok := base.Get("Vignetting", "Amount")
	require.True(t, ok)
	assert.Equal(t, "-30", v)
}

func TestPassthroughRoundtrip(t *testing.T) {
	f := parseSample(t)
	f.SetScalars(5500, 1.0, 0)
	f.SetCrop(0, 312, 6000, 3375)

	path := filepath.Join(t.TempDir(), "frame.NEF.pp3")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	// Untouched sections survive verbatim, including ';' in values.
	v, ok := loaded.Get("Exposure", "Curve")
	require.True(t, ok)
	assert.Equal(t, "1;0.000;0.000;0.125;0.150;1.000;1.000;", v)

	v, ok = loaded.Get("Sharpening", "Amount")
	require.True(t, ok)
	assert.Equal(t, "200", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Temperature=5500", "no padding around =")
	assert.False(t, strings.Contains(string(data), "Temperature = "), "no padding around =")
}

func TestWriteTo(t *testing.T) {
	f := parseSample(t)

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[White Balance]")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.pp3"))
	require.Error(t, err)
}
