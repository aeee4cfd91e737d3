package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"github.com/chrisdamba/reviewclf/internal/cloudwriter"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// FeatureColumns is the header of every tabular export.
func FeatureColumns() []string {
	cols := []string{"order_id", "review_score", "label"}
	for _, f := range models.NumericFeatures {
		cols = append(cols, f.Name)
	}
	for _, f := range models.CategoricalFeatures {
		cols = append(cols, f.Name)
	}
	return cols
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes missing numbers as empty cells.
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureColumns()); err != nil {
		return err
	}
	row := make([]string, 0, len(FeatureColumns()))
	for i := range records {
		r := &records[i]
		row = row[:0]
		row = append(row, r.OrderID, strconv.Itoa(int(r.ReviewScore)), strconv.Itoa(int(r.Label)))
		for _, f := range models.NumericFeatures {
			row = append(row, formatFloat(f.Get(r)))
		}
		for _, f := range models.CategoricalFeatures {
			row = append(row, f.Get(r))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONLines writes one object per record; missing numbers become null.
func WriteJSONLines(w io.Writer, records []models.Record) error {
	for i := range records {
		r := &records[i]
		obj := map[string]any{
			"order_id":     r.OrderID,
			"review_score": r.ReviewScore,
			"label":        r.Label,
		}
		for _, f := range models.NumericFeatures {
			obj[f.Name] = models.Number(f.Get(r))
		}
		for _, f := range models.CategoricalFeatures {
			obj[f.Name] = f.Get(r)
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", r.OrderID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

type parquetRecord struct {
	OrderID                  string  `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReviewScore              int32   `parquet:"name=review_score, type=INT32"`
	Label                    int32   `parquet:"name=label, type=INT32"`
	ApprovalHours            float64 `parquet:"name=approval_hours, type=DOUBLE"`
	CarrierDays              float64 `parquet:"name=carrier_days, type=DOUBLE"`
	DeliveryDays             float64 `parquet:"name=delivery_days, type=DOUBLE"`
	DeliveryVsEstimateDays   float64 `parquet:"name=delivery_vs_estimate_days, type=DOUBLE"`
	ResponseHours            float64 `parquet:"name=response_hours, type=DOUBLE"`
	IsDelivered              float64 `parquet:"name=is_delivered, type=DOUBLE"`
	PaymentValue             float64 `parquet:"name=payment_value, type=DOUBLE"`
	PaymentInstallments      float64 `parquet:"name=payment_installments, type=DOUBLE"`
	Price                    float64 `parquet:"name=price, type=DOUBLE"`
	FreightValue             float64 `parquet:"name=freight_value, type=DOUBLE"`
	FreightRatio             float64 `parquet:"name=freight_ratio, type=DOUBLE"`
	ItemCount                float64 `parquet:"name=item_count, type=DOUBLE"`
	SellerCount              float64 `parquet:"name=seller_count, type=DOUBLE"`
	ProductMeanRating        float64 `parquet:"name=product_mean_rating, type=DOUBLE"`
	ProductPhotosQty         float64 `parquet:"name=product_photos_qty, type=DOUBLE"`
	ProductDescriptionLength float64 `parquet:"name=product_description_length, type=DOUBLE"`
	ProductWeightG           float64 `parquet:"name=product_weight_g, type=DOUBLE"`
	DistanceKm               float64 `parquet:"name=distance_km, type=DOUBLE"`
	SameState                float64 `parquet:"name=same_state, type=DOUBLE"`
	PaymentType              string  `parquet:"name=payment_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductCategory          string  `parquet:"name=product_category, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerState            string  `parquet:"name=customer_state, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toParquet(r *models.Record) parquetRecord {
	return parquetRecord{
		OrderID:                  r.OrderID,
		ReviewScore:              r.ReviewScore,
		Label:                    r.Label,
		ApprovalHours:            r.ApprovalHours,
		CarrierDays:              r.CarrierDays,
		DeliveryDays:             r.DeliveryDays,
		DeliveryVsEstimateDays:   r.DeliveryVsEstimateDays,
		ResponseHours:            r.ResponseHours,
		IsDelivered:              r.IsDelivered,
		PaymentValue:             r.PaymentValue,
		PaymentInstallments:      r.PaymentInstallments,
		Price:                    r.Price,
		FreightValue:             r.FreightValue,
		FreightRatio:             r.FreightRatio,
		ItemCount:                r.ItemCount,
		SellerCount:              r.SellerCount,
		ProductMeanRating:        r.ProductMeanRating,
		ProductPhotosQty:         r.ProductPhotosQty,
		ProductDescriptionLength: r.ProductDescriptionLength,
		ProductWeightG:           r.ProductWeightG,
		DistanceKm:               r.DistanceKm,
		SameState:                r.SameState,
		PaymentType:              r.PaymentType,
		ProductCategory:          r.ProductCategory,
		CustomerState:            r.CustomerState,
	}
}

// WriteParquet writes records to fw and closes it.
func WriteParquet(fw source.ParquetFile, records []models.Record) error {
	pw, err := writer.NewParquetWriter(fw, new(parquetRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		if err := pw.Write(toParquet(&records[i])); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write record %s: %w", records[i].OrderID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return fw.Close()
}

// FeatureExporter writes the engineered table in the configured format to
// the output directory and, when a cloud factory is set, to the bucket.
type FeatureExporter struct {
	format  string
	dir     string
	factory cloudwriter.CloudWriterFactory
	bucket  string
	prefix  string
}

func NewFeatureExporter(format, dir string) *FeatureExporter {
	return &FeatureExporter{format: format, dir: dir}
}

func (e *FeatureExporter) WithCloud(factory cloudwriter.CloudWriterFactory, bucket, prefix string) *FeatureExporter {
	e.factory = factory
	e.bucket = bucket
	e.prefix = prefix
	return e
}

func (e *FeatureExporter) FileName() string {
	switch e.format {
	case models.ExportParquet:
		return "features.parquet"
	case models.ExportJSON:
		return "features.jsonl"
	default:
		return "features.csv"
	}
}

// Export returns the local path of the written file.
func (e *FeatureExporter) Export(ctx context.Context, records []models.Record) (string, error) {
	store, err := NewLocalStore(e.dir)
	if err != nil {
		return "", err
	}
	var artifacts ArtifactStore = store
	if e.factory != nil {
		artifacts = NewMultiStore(store, NewCloudStore(e.factory, e.bucket, e.prefix))
	}
	name := e.FileName()

	switch e.format {
	case models.ExportCSV, models.ExportJSON:
		var buf bytes.Buffer
		if e.format == models.ExportCSV {
			err = WriteCSV(&buf, records)
		} else {
			err = WriteJSONLines(&buf, records)
		}
		if err != nil {
			return "", err
		}
		if err := artifacts.Put(ctx, name, buf.Bytes()); err != nil {
			return "", err
		}

	case models.ExportParquet:
		fw, err := local.NewLocalFileWriter(store.Location(name))
		if err != nil {
			return "", fmt.Errorf("failed to create local file writer: %w", err)
		}
		if err := WriteParquet(fw, records); err != nil {
			return "", err
		}
		if e.factory != nil {
			cw, err := e.factory.NewWriter(ctx, e.bucket, filepath.ToSlash(filepath.Join(e.prefix, name)))
			if err != nil {
				return "", fmt.Errorf("failed to create cloud file writer: %w", err)
			}
			if err := WriteParquet(NewCloudParquetFile(cw), records); err != nil {
				return "", err
			}
		}

	default:
		return "", fmt.Errorf("unsupported export format: %s", e.format)
	}

	return store.Location(name), nil
}
