package iso8583

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nilm987521/gofep/internal/logger"
)

// csvColumns is the expected header of a definition CSV, in order.
var csvColumns = []string{
	"fieldNumber", "name", "description", "fieldType", "lengthType",
	"length", "dataEncoding", "lengthEncoding", "sensitive", "paddingChar", "leftPadding",
}

// LoadTableFile reads a definition source, picking the format from the file
// extension (.csv or .json).
func LoadTableFile(provider, path string) (*FieldTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TableError{Provider: provider, Err: err}
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(provider, f)
	case ".csv":
		return ParseCSV(provider, f)
	default:
		return nil, &TableError{Provider: provider,
			Err: fmt.Errorf("unsupported definition format %q", filepath.Ext(path))}
	}
}

// ParseCSV reads field definitions from CSV: a header row, then one row per
// field. Lines starting with '#' are comments, blank lines are skipped and
// quoted cells are honored. Any unknown enum token or malformed cell aborts
// the load with the offending line number. A duplicate field number logs a
// warning and the later row wins.
func ParseCSV(provider string, r io.Reader) (*FieldTable, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &TableError{Provider: provider, Err: fmt.Errorf("empty definition source")}
	}
	if err != nil {
		return nil, &TableError{Provider: provider, Err: err}
	}
	if len(header) != len(csvColumns) {
		return nil, &TableError{Provider: provider, Line: 1,
			Err: fmt.Errorf("header has %d columns, want %d (%s)", len(header), len(csvColumns), strings.Join(csvColumns, ","))}
	}
	for i, col := range csvColumns {
		if strings.TrimSpace(header[i]) != col {
			return nil, &TableError{Provider: provider, Line: 1,
				Err: fmt.Errorf("header column %d is %q, want %q", i+1, header[i], col)}
		}
	}

	t := &FieldTable{provider: providerKey(provider), defs: make(map[int]*FieldDef)}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &TableError{Provider: provider, Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(csvColumns) {
			return nil, &TableError{Provider: provider, Line: line,
				Err: fmt.Errorf("row has %d columns, want %d", len(row), len(csvColumns))}
		}
		def, err := parseCSVRow(row)
		if err != nil {
			return nil, &TableError{Provider: provider, Line: line, Err: err}
		}
		if _, dup := t.defs[def.Number]; dup {
			logger.Warn("Duplicate field definition, keeping the last",
				"provider", provider, "field", def.Number, "line", line)
		}
		t.defs[def.Number] = def
	}
	return t, nil
}

func parseCSVRow(row []string) (*FieldDef, error) {
	num, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("fieldNumber %q: %w", row[0], err)
	}

	ft, err := ParseFieldType(row[3])
	if err != nil {
		return nil, err
	}
	lt, err := ParseLengthType(row[4])
	if err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(strings.TrimSpace(row[5]))
	if err != nil {
		return nil, fmt.Errorf("length %q: %w", row[5], err)
	}
	de, err := ParseEncoding(row[6])
	if err != nil {
		return nil, fmt.Errorf("dataEncoding: %w", err)
	}
	le, err := ParseEncoding(row[7])
	if err != nil {
		return nil, fmt.Errorf("lengthEncoding: %w", err)
	}
	sensitive, err := parseBool(row[8])
	if err != nil {
		return nil, fmt.Errorf("sensitive: %w", err)
	}

	var padChar byte
	if pc := row[9]; pc != "" {
		if len(pc) != 1 {
			return nil, fmt.Errorf("paddingChar %q must be a single character", pc)
		}
		padChar = pc[0]
	}

	leftPad := false
	if strings.TrimSpace(row[10]) != "" {
		leftPad, err = parseBool(row[10])
		if err != nil {
			return nil, fmt.Errorf("leftPadding: %w", err)
		}
	}

	def := &FieldDef{
		Number:         num,
		Name:           strings.TrimSpace(row[1]),
		Description:    strings.TrimSpace(row[2]),
		Type:           ft,
		LengthType:     lt,
		Length:         length,
		DataEncoding:   de,
		LengthEncoding: le,
		Sensitive:      sensitive,
		PadChar:        padChar,
		LeftPad:        leftPad,
	}
	def.applyPaddingDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true, nil
	case "false", "no", "0", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// jsonFieldDef mirrors the CSV columns for JSON sources.
type jsonFieldDef struct {
	FieldNumber    int    `json:"fieldNumber"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	FieldType      string `json:"fieldType"`
	LengthType     string `json:"lengthType"`
	Length         int    `json:"length"`
	DataEncoding   string `json:"dataEncoding"`
	LengthEncoding string `json:"lengthEncoding"`
	Sensitive      bool   `json:"sensitive"`
	PaddingChar    string `json:"paddingChar"`
	LeftPadding    bool   `json:"leftPadding"`
}

// ParseJSON reads field definitions from a JSON array with the same
// attributes as the CSV columns. Duplicates warn and keep the last, matching
// ParseCSV.
func ParseJSON(provider string, r io.Reader) (*FieldTable, error) {
	var rows []jsonFieldDef
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rows); err != nil {
		return nil, &TableError{Provider: provider, Err: err}
	}

	t := &FieldTable{provider: providerKey(provider), defs: make(map[int]*FieldDef, len(rows))}
	for i, row := range rows {
		ft, err := ParseFieldType(row.FieldType)
		if err != nil {
			return nil, &TableError{Provider: provider, Line: i + 1, Err: err}
		}
		lt, err := ParseLengthType(row.LengthType)
		if err != nil {
			return nil, &TableError{Provider: provider, Line: i + 1, Err: err}
		}
		de, err := ParseEncoding(row.DataEncoding)
		if err != nil {
			return nil, &TableError{Provider: provider, Line: i + 1, Err: err}
		}
		le, err := ParseEncoding(row.LengthEncoding)
		if err != nil {
			return nil, &TableError{Provider: provider, Line: i + 1, Err: err}
		}

		var padChar byte
		if row.PaddingChar != "" {
			if len(row.PaddingChar) != 1 {
				return nil, &TableError{Provider: provider, Line: i + 1,
					Err: fmt.Errorf("paddingChar %q must be a single character", row.PaddingChar)}
			}
			padChar = row.PaddingChar[0]
		}

		def := &FieldDef{
			Number:         row.FieldNumber,
			Name:           row.Name,
			Description:    row.Description,
			Type:           ft,
			LengthType:     lt,
			Length:         row.Length,
			DataEncoding:   de,
			LengthEncoding: le,
			Sensitive:      row.Sensitive,
			PadChar:        padChar,
			LeftPad:        row.LeftPadding,
		}
		def.applyPaddingDefaults()
		if err := def.Validate(); err != nil {
			return nil, &TableError{Provider: provider, Line: i + 1, Err: err}
		}
		if _, dup := t.defs[def.Number]; dup {
			logger.Warn("Duplicate field definition, keeping the last",
				"provider", provider, "field", def.Number)
		}
		t.defs[def.Number] = def
	}
	return t, nil
}
