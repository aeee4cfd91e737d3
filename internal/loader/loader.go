package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrMissingColumn = errors.New("missing column")

// rows between context checks while scanning a file
const checkEvery = 4096

// Load reads the eight source tables from dir. Files are read concurrently;
// the first failure cancels the others.
func Load(ctx context.Context, dir string, files models.DataFiles) (*models.Dataset, error) {
	logger := log.WithField("component", "loader")
	ds := &models.Dataset{}
	g, ctx := errgroup.WithContext(ctx)

	path := func(name string) string { return filepath.Join(dir, name) }

	g.Go(func() error {
		var err error
		ds.Orders, err = LoadOrders(ctx, path(files.Orders))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Items, err = LoadItems(ctx, path(files.Items))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Reviews, err = LoadReviews(ctx, path(files.Reviews))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Products, err = LoadProducts(ctx, path(files.Products))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Sellers, err = LoadSellers(ctx, path(files.Sellers))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Payments, err = LoadPayments(ctx, path(files.Payments))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Customers, err = LoadCustomers(ctx, path(files.Customers))
		return err
	})
	g.Go(func() error {
		var err error
		ds.Geolocation, err = LoadGeolocation(ctx, path(files.Geolocation))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := ds.Counts()
	logger.WithFields(log.Fields{
		"orders":      c.Orders,
		"items":       c.Items,
		"reviews":     c.Reviews,
		"products":    c.Products,
		"sellers":     c.Sellers,
		"payments":    c.Payments,
		"customers":   c.Customers,
		"geolocation": c.Geolocation,
	}).Info("dataset loaded")

	return ds, nil
}

// row gives typed, header-addressed access to one CSV record.
type row struct {
	index  map[string]int
	fields []string
}

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) number(col string) float64 {
	s := r.str(col)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (r row) integer(col string) int {
	v := r.number(col)
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

func (r row) timestamp(col string) time.Time {
	return ParseTimestamp(r.str(col))
}

// zip normalises a zip code prefix so "01037" and "1037" join.
func (r row) zip(col string) string {
	z := strings.TrimLeft(r.str(col), "0")
	if z == "" && r.str(col) != "" {
		return "0"
	}
	return z
}

// ParseTimestamp accepts the source layout and a date-only variant. Empty or
// malformed values yield the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{models.TimestampLayout, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// scan streams path, validating that every required column exists, and
// calls fn for each data row.
func scan(ctx context.Context, path string, required []string, fn func(row) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		// strip a UTF-8 BOM left by spreadsheet exports
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: %w %q", filepath.Base(path), ErrMissingColumn, col)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(row{index: index, fields: fields}); err != nil {
			return err
		}
	}
}
