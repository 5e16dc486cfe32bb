// Package seed loads reference data (ingredients and the default tags).
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"foodgram/backend/internal/models"
	"foodgram/backend/internal/store"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Format of an ingredient dump.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported ingredient file %q: want .csv or .json", path)
}

// Result counts what a load did.
type Result struct {
	Read    int
	Created int
}

// DefaultTags are created by LoadDefaultTags.
var DefaultTags = []models.Tag{
	{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
}

// ParseIngredients reads "name,measurement_unit" rows. CSV input may carry a
// header line, JSON input is an array of {"name","measurement_unit"}.
func ParseIngredients(r io.Reader, format Format) ([]models.Ingredient, error) {
	switch format {
	case FormatJSON:
		var rows []struct {
			Name            string `json:"name"`
			MeasurementUnit string `json:"measurement_unit"`
		}
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
		out := make([]models.Ingredient, 0, len(rows))
		for i, row := range rows {
			ing, err := ingredient(row.Name, row.MeasurementUnit)
			if err != nil {
				return nil, fmt.Errorf("ingredient %d: %w", i, err)
			}
			out = append(out, ing)
		}
		return out, nil
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = 2
		cr.TrimLeadingSpace = true
		var out []models.Ingredient
		for line := 1; ; line++ {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if err != nil {
				return nil, fmt.Errorf("read ingredients: %w", err)
			}
			if line == 1 && strings.EqualFold(rec[0], "name") {
				continue
			}
			ing, err := ingredient(rec[0], rec[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			out = append(out, ing)
		}
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func ingredient(name, unit string) (models.Ingredient, error) {
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return models.Ingredient{}, errors.New("name and measurement unit are required")
	}
	return models.Ingredient{Name: name, MeasurementUnit: unit}, nil
}

// LoadIngredients inserts every ingredient that is not stored yet. Running
// it twice with the same input creates nothing the second time.
func LoadIngredients(ctx context.Context, db *gorm.DB, r io.Reader, format Format) (Result, error) {
	items, err := ParseIngredients(r, format)
	if err != nil {
		return Result{}, err
	}
	res := Result{Read: len(items)}
	err = store.InsertAtomic(ctx, db, func(tx *gorm.DB) error {
		return countCreated[models.Ingredient](tx, &res, func() error {
			for _, item := range items {
				ing := item
				if err := tx.Where(models.Ingredient{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}).FirstOrCreate(&ing).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	return res, err
}

// LoadDefaultTags creates DefaultTags, skipping slugs that already exist.
func LoadDefaultTags(ctx context.Context, db *gorm.DB) (Result, error) {
	res := Result{Read: len(DefaultTags)}
	err := store.InsertAtomic(ctx, db, func(tx *gorm.DB) error {
		return countCreated[models.Tag](tx, &res, func() error {
			for _, def := range DefaultTags {
				tag := def
				if err := tx.Where(models.Tag{Slug: tag.Slug}).Attrs(models.Tag{Name: tag.Name, Color: tag.Color}).FirstOrCreate(&tag).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	return res, err
}

func countCreated[T any](tx *gorm.DB, res *Result, fn func() error) error {
	var before, after int64
	if err := tx.Model(new(T)).Count(&before).Error; err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if err := tx.Model(new(T)).Count(&after).Error; err != nil {
		return err
	}
	res.Created = int(after - before)
	return nil
}
