// Package importer manages a project's import inbox: journal CSV files
// dropped into import/ wait there until they are posted, then move to
// import/processed/.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/balancete/internal/journal"
)

// Dir is the inbox directory, relative to the project root.
const Dir = "import"

// ProcessedDir holds posted files, relative to Dir.
const ProcessedDir = "processed"

// File describes a CSV file waiting in the inbox.
type File struct {
	Name string
	Path string
	Size int64
}

// Poster posts the entries of one journal CSV. *journal.Service implements it.
type Poster interface {
	ImportCSV(ctx context.Context, r io.Reader) (journal.ImportResult, error)
}

// Result is the outcome of posting one inbox file.
type Result struct {
	File File
	journal.ImportResult
}

// Inbox is the import directory of one project.
type Inbox struct {
	dir string
	log zerolog.Logger
}

// NewInbox returns the inbox of the project rooted at projectRoot.
func NewInbox(projectRoot string, log zerolog.Logger) *Inbox {
	return &Inbox{
		dir: filepath.Join(projectRoot, Dir),
		log: log.With().Str("component", "importer").Logger(),
	}
}

// Dir returns the inbox directory.
func (b *Inbox) Dir() string {
	return b.dir
}

// Pending returns the CSV files in the inbox in name order. A missing
// inbox has no files.
func (b *Inbox) Pending() ([]File, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, File{
			Name: e.Name(),
			Path: filepath.Join(b.dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from the inbox to its processed directory. It
// refuses to overwrite a file processed earlier under the same name.
func (b *Inbox) MarkProcessed(f File) error {
	dstDir := filepath.Join(b.dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, f.Name)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("moving %s to processed: %s already exists", f.Name, dst)
	}
	if err := os.Rename(f.Path, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", f.Name, err)
	}
	return nil
}

// Run posts every pending file in name order, moving each one to processed
// once its entries are stored. It stops at the first failure; that file and
// the ones after it stay in the inbox.
func (b *Inbox) Run(ctx context.Context, poster Poster) ([]Result, error) {
	files, err := b.Pending()
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range files {
		res, err := b.post(ctx, poster, f)
		if err != nil {
			return results, fmt.Errorf("importing %s: %w", f.Name, err)
		}
		if err := b.MarkProcessed(f); err != nil {
			return results, err
		}
		b.log.Info().
			Str("file", f.Name).
			Int("entries", res.Entries).
			Int("lines", res.Lines).
			Msg("Processed import file")
		results = append(results, Result{File: f, ImportResult: res})
	}
	return results, nil
}

func (b *Inbox) post(ctx context.Context, poster Poster, f File) (journal.ImportResult, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return journal.ImportResult{}, err
	}
	defer r.Close()
	return poster.ImportCSV(ctx, r)
}
