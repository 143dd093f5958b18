package feed

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// FieldKind tells the adapters how to coerce a source cell
type FieldKind int

const (
	// KindText passes the cell through as-is
	KindText FieldKind = iota
	// KindNumeric coerces string or float representations to an unsigned integer
	KindNumeric
	// KindDate runs the cell through the date cascade
	KindDate
)

// Canonical field names of the output record
const (
	fieldTicketID   = "requestid"
	fieldActionDate = "actiondate"
	fieldOutcome    = "outcome"
	fieldNote       = "note"
	fieldWho        = "actionwho"
	fieldActionID   = "cfactionid"
)

// Field describes one logical field of the canonical record
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// fields is the closed set of canonical fields, with explicit kind metadata
// so adapters never re-derive typing from header text.
var fields = []Field{
	{Name: fieldTicketID, Kind: KindNumeric, Required: true},
	{Name: fieldActionDate, Kind: KindDate, Required: false},
	{Name: fieldOutcome, Kind: KindText, Required: false},
	{Name: fieldNote, Kind: KindText, Required: true},
	{Name: fieldWho, Kind: KindText, Required: true},
	{Name: fieldActionID, Kind: KindText, Required: true},
}

func fieldByName(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// builtinAliases maps lowercased source header spellings to canonical field
// names. Lookups are case-insensitive, so only spellings that differ beyond
// case appear here. Adding a spelling is a data change, not a code change.
// "cdactionid" is a typo that shipped in real export files.
var builtinAliases = map[string]string{
	"requestid":   fieldTicketID,
	"request_id":  fieldTicketID,
	"actiondate":  fieldActionDate,
	"action_date": fieldActionDate,
	"outcome":     fieldOutcome,
	"note":        fieldNote,
	"actionwho":   fieldWho,
	"cfactionid":  fieldActionID,
	"cdactionid":  fieldActionID,
}

// aliasTable resolves source headers to canonical field names
type aliasTable map[string]string

func newAliasTable(extra map[string]string) aliasTable {
	table := make(aliasTable, len(builtinAliases)+len(extra))
	for alias, name := range builtinAliases {
		table[alias] = name
	}
	for alias, name := range extra {
		table[strings.ToLower(strings.TrimSpace(alias))] = name
	}
	return table
}

// Canonical resolves one source header, case-insensitively
func (t aliasTable) Canonical(header string) (string, bool) {
	name, ok := t[strings.ToLower(strings.TrimSpace(header))]
	return name, ok
}

type aliasFile struct {
	Aliases map[string]string `toml:"aliases"`
}

// LoadAliases reads extra header aliases from a TOML file. Every alias must
// point at a canonical field name.
func LoadAliases(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read alias config", goerr.V("path", path))
	}

	var file aliasFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse alias config", goerr.V("path", path))
	}

	for alias, name := range file.Aliases {
		if _, ok := fieldByName(name); !ok {
			return nil, goerr.New("alias points at unknown canonical field",
				goerr.V("alias", alias),
				goerr.V("field", name),
				goerr.V("path", path),
			)
		}
	}

	return file.Aliases, nil
}
