package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/journal"
)

// fakePoster records the files it was given and fails on bodies containing "bad".
type fakePoster struct {
	bodies []string
}

func (p *fakePoster) ImportCSV(ctx context.Context, r io.Reader) (journal.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return journal.ImportResult{}, err
	}
	body := string(data)
	p.bodies = append(p.bodies, body)
	if strings.Contains(body, "bad") {
		return journal.ImportResult{}, errors.New("validation failed")
	}
	return journal.ImportResult{Entries: 1, Lines: strings.Count(body, "\n")}, nil
}

func setupInbox(t *testing.T, files map[string]string) (string, *Inbox) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, Dir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return root, NewInbox(root, zerolog.Nop())
}

func TestPending_FindsCSVs(t *testing.T) {
	_, inbox := setupInbox(t, map[string]string{
		"b.csv":     "data",
		"a.CSV":     "data",
		"notes.txt": "data",
	})

	files, err := inbox.Pending()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.CSV", files[0].Name)
	assert.Equal(t, "b.csv", files[1].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestPending_IgnoresProcessedDir(t *testing.T) {
	root, inbox := setupInbox(t, map[string]string{"new.csv": "data"})
	processed := filepath.Join(root, Dir, ProcessedDir)
	require.NoError(t, os.MkdirAll(processed, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.csv"), []byte("data"), 0o644))

	files, err := inbox.Pending()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestPending_MissingDir(t *testing.T) {
	inbox := NewInbox(t.TempDir(), zerolog.Nop())
	files, err := inbox.Pending()
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	root, inbox := setupInbox(t, map[string]string{"jan.csv": "data"})
	files, err := inbox.Pending()
	require.NoError(t, err)

	require.NoError(t, inbox.MarkProcessed(files[0]))

	_, err = os.Stat(filepath.Join(root, Dir, "jan.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, Dir, ProcessedDir, "jan.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_RefusesOverwrite(t *testing.T) {
	root, inbox := setupInbox(t, map[string]string{"jan.csv": "new"})
	processed := filepath.Join(root, Dir, ProcessedDir)
	require.NoError(t, os.MkdirAll(processed, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "jan.csv"), []byte("old"), 0o644))

	files, err := inbox.Pending()
	require.NoError(t, err)
	err = inbox.MarkProcessed(files[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(filepath.Join(processed, "jan.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestRun(t *testing.T) {
	root, inbox := setupInbox(t, map[string]string{
		"01-jan.csv": "jan\n",
		"02-feb.csv": "feb\nfeb\n",
	})
	poster := &fakePoster{}

	results, err := inbox.Run(context.Background(), poster)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "01-jan.csv", results[0].File.Name)
	assert.Equal(t, 2, results[1].Lines)
	assert.Equal(t, []string{"jan\n", "feb\nfeb\n"}, poster.bodies)

	pending, err := inbox.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
	entries, err := os.ReadDir(filepath.Join(root, Dir, ProcessedDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	_, inbox := setupInbox(t, map[string]string{
		"01-ok.csv":    "ok\n",
		"02-bad.csv":   "bad\n",
		"03-later.csv": "later\n",
	})
	poster := &fakePoster{}

	results, err := inbox.Run(context.Background(), poster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "importing 02-bad.csv")
	require.Len(t, results, 1)
	assert.Len(t, poster.bodies, 2, "later files are not attempted")

	pending, err := inbox.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "02-bad.csv", pending[0].Name)
	assert.Equal(t, "03-later.csv", pending[1].Name)
}
