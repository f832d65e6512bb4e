package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/donexus/lease-extract/internal/model"
)

func fptr(v float64) *float64 { return &v }

func exportFixture() []model.ExtractionResult {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	return []model.ExtractionResult{
		{
			ID:       "id-1",
			Filename: "lease.pdf",
			Status:   model.StatusSuccess,
			Record: &model.Record{
				Tenants: []model.Tenant{
					{FirstName: "Jane", LastName: "Doe"},
					{FirstName: "John", LastName: "Doe"},
				},
				Address: model.Address{
					Street:      "Zieblandstraße",
					HouseNumber: "25a",
					ZipCode:     "80798",
					City:        "München",
				},
				WarmRent:          1405,
				ColdRent:          1040,
				UtilitiesCost:     fptr(320),
				DepositAmount:     fptr(2500),
				RentIncreaseType:  model.RentIncreaseFixedStep,
				ContractStartDate: start,
				IsActive:          true,
			},
			Report: &model.QualityReport{
				OverallScore:      92.5,
				ConfidenceScore:   0.95,
				CompletenessScore: 100,
				ValidationScore:   100,
				ConsistencyScore:  80,
				QualityTier:       model.TierExcellent,
			},
			ProcessingTimeMs: 4230,
			CreatedAt:        created,
		},
		{
			ID:               "id-2",
			Filename:         "scan.pdf",
			Status:           model.StatusFailed,
			ErrorMessage:     "document is empty or unreadable",
			CreatedAt:        created,
			ProcessingTimeMs: 120,
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(exportFixture(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Extractions", sheet.Name)
	require.Len(t, sheet.Rows, 3) // header + 2 records

	header := sheet.Rows[0]
	require.Len(t, header.Cells, len(exportColumns))
	assert.Equal(t, "Extraction ID", header.Cells[0].String())
	assert.Equal(t, "Quality Tier", header.Cells[20].String())

	first := sheet.Rows[1]
	assert.Equal(t, "id-1", first.Cells[0].String())
	assert.Equal(t, "lease.pdf", first.Cells[1].String())
	assert.Equal(t, "success", first.Cells[2].String())
	assert.Equal(t, "Jane Doe, John Doe", first.Cells[3].String())
	assert.Equal(t, "München", first.Cells[7].String())
	assert.Equal(t, "fixed_step", first.Cells[15].String())
	assert.Equal(t, "2020-03-01", first.Cells[16].String())
	assert.Equal(t, "", first.Cells[17].String()) // unlimited contract
	assert.Equal(t, "true", first.Cells[18].String())
	assert.Equal(t, "excellent", first.Cells[20].String())

	warm, err := first.Cells[8].Float()
	require.NoError(t, err)
	assert.Equal(t, 1405.0, warm)

	// Failed run keeps the journal columns, record fields stay blank.
	second := sheet.Rows[2]
	assert.Equal(t, "id-2", second.Cells[0].String())
	assert.Equal(t, "failed", second.Cells[2].String())
	assert.Equal(t, "", second.Cells[3].String())
}

func TestSuggestFilename(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 30, 5, 0, time.UTC)
	assert.Equal(t, "extractions_20260829-103005.xlsx", SuggestFilename(now))
}
