package feed

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"

	"github.com/itsm-lab/halosync/pkg/domain/model"
)

// excelSource reads the first worksheet of a workbook into an in-memory
// grid. The first row is the header row; remaining rows are data.
type excelSource struct {
	name      string
	rawHeader []string
	canonical []string
	kinds     []FieldKind
	present   map[string]bool
	rows      [][]string
}

func newExcelSource(path, name string, table aliasTable) (*excelSource, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open excel file", goerr.V("file", name))
	}
	defer func() {
		_ = wb.Close()
	}()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, goerr.New("excel file has no worksheets", goerr.V("file", name))
	}
	sheet := sheets[0]

	// Raw cell values keep date cells as spreadsheet serials so the date
	// cascade sees them before any display formatting.
	grid, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read worksheet",
			goerr.V("file", name),
			goerr.V("sheet", sheet),
		)
	}
	if len(grid) == 0 {
		return nil, goerr.New("worksheet has no header row",
			goerr.V("file", name),
			goerr.V("sheet", sheet),
		)
	}

	rawHeader := grid[0]
	canonical := make([]string, len(rawHeader))
	kinds := make([]FieldKind, len(rawHeader))
	present := make(map[string]bool, len(fields))
	for i, h := range rawHeader {
		fieldName, ok := table.Canonical(h)
		if !ok {
			continue
		}
		canonical[i] = fieldName
		present[fieldName] = true
		if f, ok := fieldByName(fieldName); ok {
			kinds[i] = f.Kind
		}
	}

	// Rows may be shorter or longer than the header; extract maps cells by
	// header position and treats the difference as blank or unmapped.
	rows := grid[1:]

	return &excelSource{
		name:      name,
		rawHeader: rawHeader,
		canonical: canonical,
		kinds:     kinds,
		present:   present,
		rows:      rows,
	}, nil
}

// Name returns the display name of the file
func (s *excelSource) Name() string {
	return s.name
}

// TotalRows returns the number of data rows in the worksheet
func (s *excelSource) TotalRows() int {
	return len(s.rows)
}

func (s *excelSource) has(name string) bool {
	return s.present[name]
}

// Records yields canonical records in worksheet order. Rows where every
// cell is blank are skipped silently; rows that fail to assemble yield an
// error carrying the headers and the raw field map.
func (s *excelSource) Records() iter.Seq2[*model.Action, error] {
	return func(yield func(*model.Action, error) bool) {
		for i, row := range s.rows {
			rowNum := i + 1

			values, hasData := s.extract(row)
			if !hasData {
				// all-blank rows are non-data
				continue
			}

			a, err := assemble(values, s.has)
			if err != nil {
				if !yield(nil, rowError(err, s.name, rowNum, s.rawHeader, values)) {
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

// extract maps one row to canonical field values, coercing cells by their
// field kind. Cells past the last header have no mapping and are ignored.
// hasData is false when every header-mapped cell is blank.
func (s *excelSource) extract(row []string) (map[string]string, bool) {
	values := make(map[string]string, len(fields))
	hasData := false

	for i, fieldName := range s.canonical {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		if strings.TrimSpace(cell) != "" {
			hasData = true
		}
		if fieldName == "" {
			continue
		}
		values[fieldName] = coerceCell(cell, s.kinds[i])
	}

	return values, hasData
}

// coerceCell normalizes one raw cell by field kind. Date cells try the
// spreadsheet serial first; everything else falls through to the shared
// cascade in assemble. Failures pass the raw text through so the type error
// is deferred to record validation.
func coerceCell(cell string, kind FieldKind) string {
	trimmed := strings.TrimSpace(cell)

	switch kind {
	case KindDate:
		if trimmed == "" {
			return ""
		}
		if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return serialToTime(serial).Format(time.DateTime)
		}
		return trimmed

	case KindNumeric:
		return trimmed

	default:
		return cell
	}
}
