package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"zaoconnect/internal/domain"
	productrepo "zaoconnect/internal/repository/product"

	"github.com/shopspring/decimal"
)

type stubProductRepo struct {
	items []productrepo.CreateInput
	err   error
}

func (s *stubProductRepo) Upsert(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, in)
	return &domain.Product{
		ID:    fmt.Sprintf("p-%d", len(s.items)),
		Name:  in.Name,
		Price: in.Price,
		Stock: in.Stock,
	}, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `name,description,price,stock,image
Maize 90kg Bag,Dry long-rain maize,4500.00,120,products/maize.jpg
Beans 50kg Bag,Rosecoco beans,7200,80,
Fresh Tomatoes Crate,Roughly 60kg per crate,1800.50,,`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "seller-1")

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 products imported, got %d", count)
	}
	if len(repo.items) != 3 {
		t.Fatalf("expected 3 products saved, got %d", len(repo.items))
	}

	first := repo.items[0]
	if first.Name != "Maize 90kg Bag" || first.Description != "Dry long-rain maize" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if !first.Price.Equal(decimal.RequireFromString("4500.00")) {
		t.Fatalf("expected price 4500.00, got %s", first.Price)
	}
	if first.Stock != 120 || first.Image != "products/maize.jpg" {
		t.Fatalf("unexpected stock or image: %+v", first)
	}
	if first.OwnerID == nil || *first.OwnerID != "seller-1" {
		t.Fatalf("expected owner seller-1, got %v", first.OwnerID)
	}

	if repo.items[2].Stock != 0 {
		t.Fatalf("expected missing stock to default to zero, got %d", repo.items[2].Stock)
	}
}

func TestCSVImporter_ShuffledHeaders(t *testing.T) {
	csvData := `PRICE,name,stock
420,Free Range Eggs Tray,150`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "seller-1")

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 product imported, got %d", count)
	}
	if repo.items[0].Name != "Free Range Eggs Tray" || !repo.items[0].Price.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("unexpected product data: %+v", repo.items[0])
	}
}

func TestCSVImporter_SkipsBlankRows(t *testing.T) {
	csvData := `name,description,price,stock,image
Maize 90kg Bag,,4500,120,
,,,,
,,,,`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "seller-1")

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected blank rows skipped, got %d imports", count)
	}
}

func TestCSVImporter_BadPrice(t *testing.T) {
	csvData := `name,price,stock
Maize 90kg Bag,4500,120
Beans 50kg Bag,not-a-price,80`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "seller-1")

	count, err := imp.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for bad price")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("expected row number in error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 product imported before failure, got %d", count)
	}
}

func TestCSVImporter_MissingName(t *testing.T) {
	csvData := `name,price,stock
,4500,120`

	imp := NewCSVImporter(strings.NewReader(csvData), &stubProductRepo{}, "seller-1")

	if _, err := imp.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "missing product name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestCSVImporter_ZeroPriceRejected(t *testing.T) {
	csvData := `name,price,stock
Free Sample,0,10`

	imp := NewCSVImporter(strings.NewReader(csvData), &stubProductRepo{}, "seller-1")

	if _, err := imp.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "positive price") {
		t.Fatalf("expected positive price error, got %v", err)
	}
}

func TestCSVImporter_HouseProducts(t *testing.T) {
	csvData := `name,price,stock
Maize 90kg Bag,4500,120`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "")

	if _, err := imp.Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if repo.items[0].OwnerID != nil {
		t.Fatalf("expected no owner for house products, got %v", *repo.items[0].OwnerID)
	}
}

func TestCSVImporter_RepoError(t *testing.T) {
	csvData := `name,price,stock
Maize 90kg Bag,4500,120`

	repo := &stubProductRepo{err: errors.New("connection reset")}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "seller-1")

	count, err := imp.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "upsert product") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 imports on failure, got %d", count)
	}
}
