// Package importer parses product import files. The format is line
// oriented: the first line holds comma-separated headers, every
// following line comma-separated values. The headers nombre, sku and
// descripcion map to the fixed product fields; any other header becomes
// a custom-field entry. There is no quoting or escaping: a literal
// comma inside a field misparses, which matches the backend this
// emulates.
package importer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/siacdev/siac/internal/siac/controller"
	"github.com/siacdev/siac/internal/siac/models"
)

// Fixed headers understood by the parser.
const (
	HeaderName        = "nombre"
	HeaderSKU         = "sku"
	HeaderDescription = "descripcion"
)

// Parse reads the stream into import rows. Lines that are empty or all
// whitespace are skipped. Rows shorter than the header line leave the
// missing columns empty; surplus values are dropped.
func Parse(r io.Reader) ([]controller.ImportRow, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header line: %w", err)
		}
		return nil, fmt.Errorf("import file is empty")
	}
	headers := strings.Split(scanner.Text(), ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []controller.ImportRow
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")

		row := controller.ImportRow{CustomFields: models.CustomFields{}}
		for i, header := range headers {
			value := ""
			if i < len(values) {
				value = strings.TrimSpace(values[i])
			}
			switch header {
			case HeaderName:
				row.Name = value
			case HeaderSKU:
				row.SKU = value
			case HeaderDescription:
				row.Description = value
			default:
				row.CustomFields[header] = value
			}
		}
		if len(row.CustomFields) == 0 {
			row.CustomFields = nil
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return rows, nil
}

// ApplyCatalogTypes converts the raw string custom-field values to the
// types the catalog configuration declares. Values that fail to convert
// stay strings; the rows remain importable either way.
func ApplyCatalogTypes(rows []controller.ImportRow, fields []models.CatalogField) {
	types := make(map[string]models.FieldType, len(fields))
	for _, field := range fields {
		types[field.Key] = field.Type
	}
	for _, row := range rows {
		for key, value := range row.CustomFields {
			raw, ok := value.(string)
			if !ok {
				continue
			}
			switch types[key] {
			case models.FieldNumber:
				if n, err := strconv.ParseFloat(raw, 64); err == nil {
					row.CustomFields[key] = n
				}
			case models.FieldBoolean:
				if b, err := strconv.ParseBool(raw); err == nil {
					row.CustomFields[key] = b
				}
			}
		}
	}
}
