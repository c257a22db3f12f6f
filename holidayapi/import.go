/*
import.go - Holiday import against the store

PURPOSE:
  Turns API holidays into holiday rows. Preview shows what an import
  would do (marking duplicates) without writing; Import writes each
  year's new holidays in one all-or-nothing batch.

DUPLICATE RULE:
  An API holiday is a duplicate when the country already has a holiday
  row starting on the same date within that year. Imported holidays are
  single-day rows (start = end) named after the local name.
*/
package holidayapi

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/capacity-engine/engine"
)

// ImportStore is what the importer needs from storage.
type ImportStore interface {
	GetCountryByISOCode(ctx context.Context, code string) (*engine.Country, error)
	HolidaysOverlapping(ctx context.Context, countryID int64, period engine.Period) ([]engine.Holiday, error)
	CreateHolidaysBatch(ctx context.Context, hs []engine.Holiday) error
}

// Importer previews and applies holiday imports.
type Importer struct {
	Client *Client
	Store  ImportStore
	Log    *zap.Logger
}

// NewImporter wires a client to a store.
func NewImporter(client *Client, store ImportStore, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{Client: client, Store: store, Log: log}
}

// PreviewItem is one API holiday with its duplicate flag.
type PreviewItem struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	LocalName   string `json:"local_name"`
	IsDuplicate bool   `json:"is_duplicate"`
}

// Preview summarizes what an import for one country and year would do.
type Preview struct {
	CountryCode    string        `json:"country_code"`
	CountryName    string        `json:"country_name"`
	Year           int           `json:"year"`
	Holidays       []PreviewItem `json:"holidays"`
	TotalCount     int           `json:"total_count"`
	DuplicateCount int           `json:"duplicate_count"`
	NewCount       int           `json:"new_count"`
}

// YearResult reports one imported year.
type YearResult struct {
	CountryCode   string `json:"country_code"`
	Year          int    `json:"year"`
	ImportedCount int    `json:"imported_count"`
	SkippedCount  int    `json:"skipped_count"`
}

// Preview fetches one year's holidays and marks which already exist.
// Nothing is written.
func (im *Importer) Preview(ctx context.Context, countryCode string, year int) (*Preview, error) {
	code := strings.ToUpper(countryCode)

	country, err := im.Store.GetCountryByISOCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, fmt.Errorf("country with code %q not found", code)
	}

	apiHolidays, err := im.Client.PublicHolidays(ctx, code, year)
	if err != nil {
		return nil, err
	}

	existing, err := im.existingDates(ctx, country.ID, year)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		CountryCode: code,
		CountryName: country.Name,
		Year:        year,
		Holidays:    []PreviewItem{},
	}
	for _, h := range apiHolidays {
		dup := existing[h.Date]
		if dup {
			preview.DuplicateCount++
		}
		preview.Holidays = append(preview.Holidays, PreviewItem{
			Date:        h.Date,
			Name:        h.Name,
			LocalName:   h.LocalName,
			IsDuplicate: dup,
		})
	}
	preview.TotalCount = len(preview.Holidays)
	preview.NewCount = preview.TotalCount - preview.DuplicateCount
	return preview, nil
}

// Import fetches and persists holidays for a country over several years.
// A year whose fetch fails is skipped; other years still import. Each
// year's new holidays land in one batch insert.
func (im *Importer) Import(ctx context.Context, countryCode string, years []int) ([]YearResult, error) {
	code := strings.ToUpper(countryCode)

	country, err := im.Store.GetCountryByISOCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, fmt.Errorf("country with code %q not found", code)
	}

	var results []YearResult
	for _, year := range years {
		apiHolidays, err := im.Client.PublicHolidays(ctx, code, year)
		if err != nil {
			im.Log.Error("skipping year after fetch failure",
				zap.String("country", code), zap.Int("year", year), zap.Error(err))
			continue
		}

		existing, err := im.existingDates(ctx, country.ID, year)
		if err != nil {
			return results, err
		}

		var batch []engine.Holiday
		skipped := 0
		for _, h := range apiHolidays {
			if existing[h.Date] {
				skipped++
				continue
			}
			name := h.LocalName
			batch = append(batch, engine.Holiday{
				CountryID: country.ID,
				Name:      &name,
				StartDate: h.Date,
				EndDate:   h.Date,
			})
		}

		if len(batch) > 0 {
			if err := im.Store.CreateHolidaysBatch(ctx, batch); err != nil {
				return results, fmt.Errorf("importing holidays for %s %d: %w", code, year, err)
			}
		}

		im.Log.Info("imported holidays",
			zap.String("country", code),
			zap.Int("year", year),
			zap.Int("imported", len(batch)),
			zap.Int("skipped", skipped),
		)
		results = append(results, YearResult{
			CountryCode:   code,
			Year:          year,
			ImportedCount: len(batch),
			SkippedCount:  skipped,
		})
	}
	return results, nil
}

// existingDates returns the start dates already stored for the country
// within the year.
func (im *Importer) existingDates(ctx context.Context, countryID int64, year int) (map[string]bool, error) {
	span, err := engine.ParsePeriod(
		fmt.Sprintf("%d-01-01", year),
		fmt.Sprintf("%d-12-31", year),
	)
	if err != nil {
		return nil, err
	}
	holidays, err := im.Store.HolidaysOverlapping(ctx, countryID, span)
	if err != nil {
		return nil, err
	}
	dates := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		dates[h.StartDate] = true
	}
	return dates, nil
}
