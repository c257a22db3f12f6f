package holidayapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/engine"
	"github.com/warp/capacity-engine/engine/store"
	"github.com/warp/capacity-engine/holidayapi"
)

// =============================================================================
// FIXTURES
// =============================================================================

// importFixture wires an importer against a stub API and a fresh store.
// 2027 always fails server-side to exercise the skip path.
func importFixture(t *testing.T) (*holidayapi.Importer, *store.Memory, engine.Country) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/PublicHolidays/2026/FR":
			w.Write([]byte(frHolidays2026))
		case "/PublicHolidays/2027/FR":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := holidayapi.NewClient(nil, holidayapi.WithBaseURL(srv.URL))
	mem := store.NewMemory()
	country := engine.Country{ISOCode: "FR", Name: "France"}
	require.NoError(t, mem.CreateCountry(context.Background(), &country))

	return holidayapi.NewImporter(client, mem, nil), mem, country
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview_MarksDuplicates(t *testing.T) {
	// GIVEN: One of the two API holidays already exists in the store
	// WHEN: Previewing the import
	// THEN: It is flagged as a duplicate; nothing is written

	ctx := context.Background()
	importer, mem, country := importFixture(t)

	name := "Jour de l'an"
	existing := engine.Holiday{CountryID: country.ID, Name: &name, StartDate: "2026-01-01", EndDate: "2026-01-01"}
	require.NoError(t, mem.CreateHoliday(ctx, &existing))

	preview, err := importer.Preview(ctx, "fr", 2026)
	require.NoError(t, err)

	assert.Equal(t, "FR", preview.CountryCode)
	assert.Equal(t, "France", preview.CountryName)
	assert.Equal(t, 2, preview.TotalCount)
	assert.Equal(t, 1, preview.DuplicateCount)
	assert.Equal(t, 1, preview.NewCount)

	require.Len(t, preview.Holidays, 2)
	assert.True(t, preview.Holidays[0].IsDuplicate)
	assert.False(t, preview.Holidays[1].IsDuplicate)

	holidays, err := mem.ListHolidays(ctx, &country.ID)
	require.NoError(t, err)
	assert.Len(t, holidays, 1) // preview never writes
}

func TestPreview_UnknownCountry(t *testing.T) {
	importer, _, _ := importFixture(t)

	_, err := importer.Preview(context.Background(), "DE", 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `country with code "DE" not found`)
}

// =============================================================================
// IMPORT
// =============================================================================

func TestImport_CreatesSingleDayRowsNamedLocally(t *testing.T) {
	// GIVEN: A clean store
	// WHEN: Importing one year
	// THEN: Each API holiday becomes a single-day row named after its
	//       local name

	ctx := context.Background()
	importer, mem, country := importFixture(t)

	results, err := importer.Import(ctx, "FR", []int{2026})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].ImportedCount)
	assert.Zero(t, results[0].SkippedCount)

	holidays, err := mem.ListHolidays(ctx, &country.ID)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "2026-01-01", holidays[0].StartDate)
	assert.Equal(t, "2026-01-01", holidays[0].EndDate)
	require.NotNil(t, holidays[0].Name)
	assert.Equal(t, "Jour de l'an", *holidays[0].Name)
}

func TestImport_SkipsExistingDates(t *testing.T) {
	ctx := context.Background()
	importer, mem, country := importFixture(t)

	name := "Jour de l'an"
	existing := engine.Holiday{CountryID: country.ID, Name: &name, StartDate: "2026-01-01", EndDate: "2026-01-01"}
	require.NoError(t, mem.CreateHoliday(ctx, &existing))

	results, err := importer.Import(ctx, "FR", []int{2026})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].ImportedCount)
	assert.Equal(t, 1, results[0].SkippedCount)

	holidays, err := mem.ListHolidays(ctx, &country.ID)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)
}

func TestImport_FailedYearSkippedOthersProceed(t *testing.T) {
	// GIVEN: The API errors for 2027
	// WHEN: Importing 2026 and 2027 together
	// THEN: 2026 imports; 2027 is absent from the results, not an error

	ctx := context.Background()
	importer, _, _ := importFixture(t)

	results, err := importer.Import(ctx, "FR", []int{2026, 2027})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2026, results[0].Year)
}

func TestImport_Rerunning_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	importer, mem, country := importFixture(t)

	_, err := importer.Import(ctx, "FR", []int{2026})
	require.NoError(t, err)
	results, err := importer.Import(ctx, "FR", []int{2026})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Zero(t, results[0].ImportedCount)
	assert.Equal(t, 2, results[0].SkippedCount)

	holidays, err := mem.ListHolidays(ctx, &country.ID)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)
}
