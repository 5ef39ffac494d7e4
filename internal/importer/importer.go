package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"zaoconnect/internal/domain"
	productrepo "zaoconnect/internal/repository/product"

	"github.com/shopspring/decimal"
)

// ProductWriter is the slice of the product repository the importer needs.
type ProductWriter interface {
	Upsert(ctx context.Context, in productrepo.CreateInput) (*domain.Product, error)
}

// CSVImporter loads a seller catalog from a CSV export. The expected
// header row is name,description,price,stock,image; extra columns are
// ignored and column order does not matter.
type CSVImporter struct {
	reader  *csv.Reader
	repo    ProductWriter
	ownerID *string
}

// NewCSVImporter builds an importer that attributes every row to ownerID.
// An empty ownerID imports house products with no seller.
func NewCSVImporter(r io.Reader, repo ProductWriter, ownerID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	imp := &CSVImporter{
		reader: csvr,
		repo:   repo,
	}
	if ownerID != "" {
		imp.ownerID = &ownerID
	}
	return imp
}

type csvRow struct {
	Name  string
	Desc  string
	Price decimal.Decimal
	Stock int
	Image string
}

// Run parses CSV rows and upserts one product per row, keyed by name.
// It returns the number of products written before any error.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	line := 1
	imported := 0

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}

		if err := i.save(ctx, row); err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" {
		return errors.New("missing product name")
	}
	if !row.Price.IsPositive() {
		return fmt.Errorf("product %q needs a positive price", row.Name)
	}
	if row.Stock < 0 {
		return fmt.Errorf("product %q has negative stock", row.Name)
	}

	_, err := i.repo.Upsert(ctx, productrepo.CreateInput{
		OwnerID:     i.ownerID,
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		Stock:       row.Stock,
		Image:       row.Image,
	})
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	name := pick(record, index, "name")
	desc := pick(record, index, "description")
	priceStr := pick(record, index, "price")
	stockStr := pick(record, index, "stock")
	image := pick(record, index, "image")

	// Spreadsheet exports often end with empty filler rows.
	if name == "" && priceStr == "" && stockStr == "" {
		return nil, nil
	}

	row := &csvRow{
		Name:  name,
		Desc:  desc,
		Image: image,
	}
	if priceStr != "" {
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("bad price %q: %w", priceStr, err)
		}
		row.Price = price
	}
	if stockStr != "" {
		stock, err := strconv.Atoi(stockStr)
		if err != nil {
			return nil, fmt.Errorf("bad stock %q: %w", stockStr, err)
		}
		row.Stock = stock
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
