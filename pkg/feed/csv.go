package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/model"
)

// csvRecord is the decode target for one delimited-text row. Tags carry the
// canonical field names; the raw header is canonicalized through the alias
// table before decoding.
type csvRecord struct {
	TicketID   string `csv:"requestid"`
	ActionDate string `csv:"actiondate"`
	Outcome    string `csv:"outcome"`
	Note       string `csv:"note"`
	Who        string `csv:"actionwho"`
	ActionID   string `csv:"cfactionid"`
}

// csvSource streams rows from a delimited-text file. Each call to Records
// reopens the file, so the sequence is restartable per file.
type csvSource struct {
	path      string
	name      string
	rawHeader []string
	canonical []string
	present   map[string]bool
	totalRows int
}

func newCSVSource(path, name string, table aliasTable) (*csvSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open csv file", goerr.V("file", name))
	}
	defer func() {
		_ = f.Close()
	}()

	// Lookahead pass: resolve the header and count data rows before the
	// data pass begins.
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rawHeader, err := r.Read()
	if err != nil {
		return nil, goerr.Wrap(err, "csv file has no header row", goerr.V("file", name))
	}

	canonical := make([]string, len(rawHeader))
	present := make(map[string]bool, len(fields))
	for i, h := range rawHeader {
		if fieldName, ok := table.Canonical(h); ok {
			canonical[i] = fieldName
			present[fieldName] = true
		} else {
			// placeholder that matches no struct field
			canonical[i] = fmt.Sprintf("_unmapped_%d", i)
		}
	}

	var total int
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// malformed lines still count: the data pass reports them per row
		}
		total++
	}

	return &csvSource{
		path:      path,
		name:      name,
		rawHeader: rawHeader,
		canonical: canonical,
		present:   present,
		totalRows: total,
	}, nil
}

// Name returns the display name of the file
func (s *csvSource) Name() string {
	return s.name
}

// TotalRows returns the data row count from the lookahead pass
func (s *csvSource) TotalRows() int {
	return s.totalRows
}

// Records yields canonical records in input order. A row that fails to
// decode or validate yields an error without ending the stream.
func (s *csvSource) Records() iter.Seq2[*model.Action, error] {
	return func(yield func(*model.Action, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, goerr.Wrap(err, "failed to open csv file", goerr.V("file", s.name)))
			return
		}
		defer func() {
			_ = f.Close()
		}()

		r := csv.NewReader(f)
		if _, err := r.Read(); err != nil {
			yield(nil, goerr.Wrap(err, "failed to skip csv header", goerr.V("file", s.name)))
			return
		}

		dec, err := csvutil.NewDecoder(r, s.canonical...)
		if err != nil {
			yield(nil, goerr.Wrap(err, "failed to build csv decoder", goerr.V("file", s.name)))
			return
		}

		row := 0
		for {
			var rec csvRecord
			err := dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				return
			}
			row++

			if err != nil {
				if !yield(nil, rowError(err, s.name, row, s.rawHeader, nil)) {
					return
				}
				continue
			}

			values := map[string]string{
				fieldTicketID:   rec.TicketID,
				fieldActionDate: rec.ActionDate,
				fieldOutcome:    rec.Outcome,
				fieldNote:       rec.Note,
				fieldWho:        rec.Who,
				fieldActionID:   rec.ActionID,
			}

			a, err := assemble(values, s.has)
			if err != nil {
				if !yield(nil, rowError(err, s.name, row, s.rawHeader, values)) {
					return
				}
				continue
			}

			if !yield(a, nil) {
				return
			}
		}
	}
}

func (s *csvSource) has(name string) bool {
	return s.present[name]
}
