package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	for in, want := range map[string]string{
		"add heat logs table":    "add_heat_logs_table",
		"Add-Heat-Logs-Table":    "add_heat_logs_table",
		"add__heat__logs__table": "add_heat_logs_table",
		"Add Lots 123":           "add_lots_123",
		"   spaces   ":           "spaces",
		"special!@#$chars":       "specialchars",
		"_leading_and_trailing_": "leading_and_trailing",
		"":                       "",
	} {
		assert.Equal(t, want, sanitizeName(in), "input %q", in)
	}
}

func TestCreateMigration(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "postgres", "000001_init_schema.up.sql")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("-- init"), 0o644))

	files, err := CreateMigration(root, "add item certificates", "GIA certificate numbers on items")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, mf := range files {
		assert.Equal(t, "000002", mf.Version)
		assert.Equal(t, filepath.Join(root, mf.Driver, "000002_add_item_certificates.up.sql"), mf.UpPath)
		assert.True(t, strings.HasSuffix(mf.DownPath, "000002_add_item_certificates.down.sql"))

		upContent, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(upContent), "add item certificates")
		assert.Contains(t, string(upContent), "GIA certificate numbers on items")
		assert.Contains(t, string(upContent), "Driver: "+mf.Driver)

		downContent, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(downContent), "Rollback")
	}
	assert.Equal(t, "postgres", files[0].Driver)
	assert.Equal(t, "mysql", files[1].Driver)
}

func TestCreateMigration_SingleDriverAndBadName(t *testing.T) {
	root := t.TempDir()

	files, err := CreateMigration(root, "first", "", "postgres")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "000001", files[0].Version)

	info, err := os.Stat(filepath.Join(root, "postgres"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(root, "mysql"))
	assert.True(t, os.IsNotExist(err))

	_, err = CreateMigration(root, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	seed := func(t *testing.T, names ...string) string {
		dir := t.TempDir()
		for _, n := range names {
			if strings.HasSuffix(n, "/") {
				require.NoError(t, os.Mkdir(filepath.Join(dir, strings.TrimSuffix(n, "/")), 0o755))
				continue
			}
			require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
		}
		return dir
	}

	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name: "sorted by version",
			files: []string{
				"000003_add_heat_logs.up.sql", "000003_add_heat_logs.down.sql",
				"000001_init_schema.up.sql", "000001_init_schema.down.sql",
				"000002_add_customers.up.sql", "000002_add_customers.down.sql",
			},
			want: []string{"000001_init_schema", "000002_add_customers", "000003_add_heat_logs"},
		},
		{
			name:  "other files and directories ignored",
			files: []string{"000001_init.up.sql", "000001_init.down.sql", "README.md", ".gitkeep", "subdir.up.sql/"},
			want:  []string{"000001_init"},
		},
		{name: "empty directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListMigrations(seed(t, tt.files...))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing directory", func(t *testing.T) {
		got, err := ListMigrations(filepath.Join(t.TempDir(), "postgres"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
