package feed

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/interfaces"
)

// Options configures how sources are opened
type Options struct {
	aliases map[string]string
}

// Option is a functional option for source configuration
type Option func(*Options)

// WithAliases adds extra header aliases on top of the built-in table
func WithAliases(aliases map[string]string) Option {
	return func(o *Options) {
		o.aliases = aliases
	}
}

// Open selects the adapter for the file by its extension and returns a
// record source over its rows.
func Open(path string, opts ...Option) (interfaces.RecordSource, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	table := newAliasTable(o.aliases)
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return newCSVSource(path, name, table)
	case ".xlsx", ".xlsm":
		return newExcelSource(path, name, table)
	case ".xls":
		return nil, goerr.New("legacy xls workbooks are not supported, convert to xlsx", goerr.V("path", path))
	default:
		return nil, goerr.New("unsupported file extension", goerr.V("path", path))
	}
}

// Entry is a discovered input file with its display name
type Entry struct {
	Path string
	Name string
}

// Discover lists the spreadsheet-shaped files in dir. Legacy .xls files are
// listed too so the run reports them as unreadable instead of silently
// ignoring them; Open rejects the format.
func Discover(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input directory", goerr.V("dir", dir))
	}

	var found []Entry
	for _, e := range dirEntries {
		if !e.Type().IsRegular() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx", ".xlsm", ".xls":
			found = append(found, Entry{
				Path: filepath.Join(dir, e.Name()),
				Name: e.Name(),
			})
		}
	}

	return found, nil
}
