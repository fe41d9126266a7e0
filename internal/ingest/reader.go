package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dvfmap/internal/models"
	"dvfmap/internal/queue"
	"dvfmap/internal/report"
)

// DVF column headers, as published.
const (
	colDate         = "Date mutation"
	colNature       = "Nature mutation"
	colPrice        = "Valeur fonciere"
	colDisposition  = "No disposition"
	colDept         = "Code departement"
	colCommune      = "Code commune"
	colPostal       = "Code postal"
	colCommuneName  = "Commune"
	colPropertyType = "Type local"
	colSurface      = "Surface reelle bati"
)

var validPropertyTypes = map[string]bool{
	"Maison":      true,
	"Appartement": true,
}

// Reader streams DVF transaction files into sale row batches.
// Malformed rows are counted and skipped, never fatal; rows failing
// the validity filters (nature, type, price, surface) are counted
// separately.
type Reader struct {
	logger    *logrus.Logger
	report    *report.Collector
	batchSize int
}

func NewReader(batchSize int, rep *report.Collector, logger *logrus.Logger) *Reader {
	return &Reader{
		logger:    logger,
		report:    rep,
		batchSize: batchSize,
	}
}

// IngestFiles parses every file matching the glob, in name order, and
// pushes the surviving rows onto the queue in batches.
func (r *Reader) IngestFiles(glob string, q *queue.RowQueue) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("invalid transaction glob %q: %w", glob, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no transaction files match %q", glob)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := r.ingestFile(path, q); err != nil {
			return err
		}
	}
	return nil
}

type columnIndex struct {
	date, nature, price, disposition   int
	dept, commune, postal, communeName int
	propertyType, surface              int
	max                                int
}

func (r *Reader) ingestFile(path string, q *queue.RowQueue) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open transaction file: %w", err)
	}
	defer file.Close()

	return r.ingestRows(file, filepath.Base(path), q)
}

func (r *Reader) ingestRows(src io.Reader, name string, q *queue.RowQueue) error {
	reader := csv.NewReader(src)
	reader.Comma = '|'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	r.logger.WithField("file", name).Info("Ingesting transaction file")

	batch := make([]*models.SaleRow, 0, r.batchSize)
	rows := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row is a counted defect; anything else means
			// the source itself stopped being readable, and retrying the
			// same read would never progress.
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			r.report.AddParseDefect(name)
			continue
		}
		rows++

		row, ok := r.parseRecord(record, cols, name)
		if !ok {
			continue
		}
		batch = append(batch, row)

		if len(batch) >= r.batchSize {
			if err := q.Push(batch); err != nil {
				return err
			}
			batch = make([]*models.SaleRow, 0, r.batchSize)
		}
	}

	r.report.AddRowsRead(rows)
	if len(batch) > 0 {
		if err := q.Push(batch); err != nil {
			return err
		}
	}
	return nil
}

// parseRecord validates one lot row. A false return means the row was
// counted, either as a parse defect or as a filtered row.
func (r *Reader) parseRecord(record []string, cols columnIndex, file string) (*models.SaleRow, bool) {
	if len(record) <= cols.max {
		r.report.AddParseDefect(file)
		return nil, false
	}

	date := strings.TrimSpace(record[cols.date])
	if _, err := time.Parse("02/01/2006", date); err != nil {
		r.report.AddParseDefect(file)
		return nil, false
	}

	price, err := parseDecimal(record[cols.price])
	if err != nil {
		r.report.AddParseDefect(file)
		return nil, false
	}
	surface, err := parseDecimal(record[cols.surface])
	if err != nil {
		r.report.AddParseDefect(file)
		return nil, false
	}

	nature := strings.TrimSpace(record[cols.nature])
	propertyType := strings.TrimSpace(record[cols.propertyType])
	if nature != "Vente" || !validPropertyTypes[propertyType] || price <= 0 || surface <= 0 {
		r.report.AddFilteredRow()
		return nil, false
	}

	communeCode, err := strconv.Atoi(strings.TrimSpace(record[cols.commune]))
	if err != nil {
		r.report.AddParseDefect(file)
		return nil, false
	}

	return &models.SaleRow{
		Date:         date,
		Nature:       nature,
		DeptCode:     strings.TrimSpace(record[cols.dept]),
		CommuneCode:  communeCode,
		Disposition:  strings.TrimSpace(record[cols.disposition]),
		PostalCode:   strings.TrimSpace(record[cols.postal]),
		CommuneName:  strings.TrimSpace(record[cols.communeName]),
		PropertyType: propertyType,
		Price:        price,
		Surface:      surface,
	}, true
}

// parseDecimal reads a DVF numeric field, which uses a comma as the
// decimal separator. An empty field parses as zero, so it falls to the
// validity filters rather than the defect counter.
func parseDecimal(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.Replace(field, ",", ".", 1), 64)
}

func resolveColumns(header []string) (columnIndex, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	cols := columnIndex{}
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{colDate, &cols.date},
		{colNature, &cols.nature},
		{colPrice, &cols.price},
		{colDisposition, &cols.disposition},
		{colDept, &cols.dept},
		{colCommune, &cols.commune},
		{colPostal, &cols.postal},
		{colCommuneName, &cols.communeName},
		{colPropertyType, &cols.propertyType},
		{colSurface, &cols.surface},
	} {
		i, ok := index[want.name]
		if !ok {
			return cols, fmt.Errorf("missing required column %q", want.name)
		}
		*want.dst = i
		if i > cols.max {
			cols.max = i
		}
	}
	return cols, nil
}
