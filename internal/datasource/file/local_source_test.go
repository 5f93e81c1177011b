package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, payload string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(payload), 0o644))
	return p
}

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name      string
		path      func(t *testing.T) string
		ctx       context.Context
		wantErrIs error
		want      string
	}{
		{
			name: "reads_content",
			path: func(t *testing.T) string { return writeInput(t, "a.csv", "id\n1\n") },
			ctx:  context.Background(),
			want: "id\n1\n",
		},
		{
			name:      "missing_file_wraps_not_exist",
			path:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			ctx:       context.Background(),
			wantErrIs: os.ErrNotExist,
		},
		{
			name:      "canceled_context_short_circuits",
			path:      func(t *testing.T) string { return writeInput(t, "a.csv", "x") },
			ctx:       canceled,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			rc, err := NewLocal(c.path(t)).Open(c.ctx)
			if c.wantErrIs != nil {
				require.ErrorIs(t, err, c.wantErrIs)
				assert.Nil(t, rc)
				return
			}
			require.NoError(t, err)
			defer rc.Close()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, c.want, string(got))
		})
	}
}

func TestLocalReadAllAndName(t *testing.T) {
	p := writeInput(t, "people.csv", "name\nBob\n")
	src := NewLocal(p)

	assert.Equal(t, "people.csv", src.Name())
	assert.Equal(t, p, src.Path())

	got, err := src.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "name\nBob\n", string(got))
}

func TestLocalReadAllEmptyFile(t *testing.T) {
	got, err := NewLocal(writeInput(t, "empty.csv", "")).ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
