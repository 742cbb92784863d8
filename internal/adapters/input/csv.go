// internal/adapters/input/csv.go

// Package input contiene los adapters de entrada del pipeline. La fuente
// CSV lee datasets de popularidad con cabecera origin,popularity,date,country.
package input

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
)

// Columnas requeridas en la cabecera, en cualquier orden y capitalización.
const (
	colOrigin     = "origin"
	colPopularity = "popularity"
	colDate       = "date"
	colCountry    = "country"
)

// CSVSource carga un dataset de origins desde un archivo CSV. Las filas
// malformadas (origin vacío, popularity no numérica, columnas faltantes) se
// descartan con un warning y se cuentan; el resto del archivo sigue
// procesándose.
type CSVSource struct {
	path   string
	logger logx.Logger
}

var _ ports.RecordSource = (*CSVSource)(nil)

// NewCSVSource crea la fuente para el archivo dado.
func NewCSVSource(path string, logger logx.Logger) *CSVSource {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &CSVSource{
		path:   path,
		logger: logger.With("component", "csv-source"),
	}
}

// Load lee el archivo completo. Retorna los registros válidos y el número de
// filas descartadas; un dataset sin ningún registro válido es un error.
func (s *CSVSource) Load(ctx context.Context) ([]domain.OriginRecord, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, errors.Wrapf(domain.ErrInputOpenFailed, "open %s: %v", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // la validación de longitud es nuestra
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, errors.Wrapf(domain.ErrInputOpenFailed, "read header of %s: %v", s.path, err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var records []domain.OriginRecord
	skipped := 0
	line := 1 // la cabecera fue la línea 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			skipped++
			s.logger.Warn("discarding unreadable csv row", "line", line, "error", err.Error())
			continue
		}

		rec, ok := s.parseRow(row, cols, line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, skipped, errors.Wrapf(domain.ErrNoInputRecords, "%s", s.path)
	}

	s.logger.Debug("csv dataset loaded",
		"path", s.path,
		"records", len(records),
		"skipped", skipped,
	)
	return records, skipped, nil
}

// columnIndex ubica cada columna requerida dentro de la cabecera.
type columnIndex struct {
	origin, popularity, date, country int
}

func mapColumns(header []string) (columnIndex, error) {
	idx := columnIndex{origin: -1, popularity: -1, date: -1, country: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colOrigin:
			idx.origin = i
		case colPopularity:
			idx.popularity = i
		case colDate:
			idx.date = i
		case colCountry:
			idx.country = i
		}
	}
	if idx.origin < 0 || idx.popularity < 0 || idx.date < 0 || idx.country < 0 {
		return idx, errors.Wrapf(domain.ErrMissingColumns,
			"header %v must contain origin, popularity, date and country", header)
	}
	return idx, nil
}

func (s *CSVSource) parseRow(row []string, cols columnIndex, line int) (domain.OriginRecord, bool) {
	field := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	origin := field(cols.origin)
	if origin == "" {
		s.logger.Warn("discarding row without origin", "line", line)
		return domain.OriginRecord{}, false
	}

	popularity, err := strconv.ParseUint(field(cols.popularity), 10, 64)
	if err != nil {
		s.logger.Warn("discarding row with invalid popularity",
			"line", line,
			"origin", origin,
			"popularity", field(cols.popularity),
		)
		return domain.OriginRecord{}, false
	}

	return domain.OriginRecord{
		Origin:     origin,
		Popularity: popularity,
		Date:       field(cols.date),
		Country:    field(cols.country),
	}, true
}
