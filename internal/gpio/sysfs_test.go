package gpio

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSysfs(t *testing.T, files map[string]string) *SysfsReader {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(mem, name, []byte(content), 0o644))
	}
	return NewSysfsReader(mem, "", DefaultFallback)
}

func TestSysfsValuePath(t *testing.T) {
	r := NewSysfsReader(afero.NewMemMapFs(), "", 0)
	assert.Equal(t, "/sys/class/gpio/gpio539/value", r.ValuePath("539"))

	r = NewSysfsReader(afero.NewMemMapFs(), "/tmp/gpio", 0)
	assert.Equal(t, "/tmp/gpio/gpio538/value", r.ValuePath("538"))
}

func TestSysfsReadTrimsValue(t *testing.T) {
	r := newSysfs(t, map[string]string{
		"/sys/class/gpio/gpio539/value": "1\n",
		"/sys/class/gpio/gpio540/value": " 0 ",
	})

	v, err := r.Read("539")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.Read("540")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestSysfsMissingFileReturnsFallback(t *testing.T) {
	r := newSysfs(t, nil)

	v, err := r.Read("539")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestSysfsCustomFallback(t *testing.T) {
	r := NewSysfsReader(afero.NewMemMapFs(), "", 1)

	v, err := r.Read("539")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSysfsMalformedValue(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"text", "high\n"},
		{"empty", ""},
		{"out of range", "2\n"},
		{"negative", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSysfs(t, map[string]string{"/sys/class/gpio/gpio539/value": tt.content})
			_, err := r.Read("539")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedValue), "got %v", err)
		})
	}
}

// deniedFs fails every open with a permission error.
type deniedFs struct{ afero.Fs }

func (deniedFs) Open(name string) (afero.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestSysfsOtherErrorsPropagate(t *testing.T) {
	r := NewSysfsReader(deniedFs{afero.NewMemMapFs()}, "", 0)

	_, err := r.Read("539")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission), "got %v", err)
}

func TestSysfsReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/sys/class/gpio/gpio538/value", []byte("1"), 0o444))
	r := NewSysfsReader(afero.NewReadOnlyFs(base), "", 0)

	v, err := r.Read("538")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.NoError(t, r.Close())
}
