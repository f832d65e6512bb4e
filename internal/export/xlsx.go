// Package export writes journaled extraction records to XLSX workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/donexus/lease-extract/internal/model"
)

// exportColumns defines the ordered output columns, one row per extraction.
var exportColumns = []string{
	"Extraction ID",
	"Filename",
	"Status",
	"Tenants",
	"Street",
	"House Number",
	"Zip Code",
	"City",
	"Warm Rent",
	"Cold Rent",
	"Utilities",
	"Parking",
	"Deposit",
	"Square Meters",
	"Rooms",
	"Rent Increase Type",
	"Contract Start",
	"Contract End",
	"Active",
	"Overall Score",
	"Quality Tier",
	"Confidence",
	"Completeness",
	"Validation",
	"Consistency",
	"Processing Time (ms)",
	"Created At",
}

// WriteXLSX writes results to an xlsx workbook at outputPath.
func WriteXLSX(results []model.ExtractionResult, outputPath string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Extractions")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportColumns {
		header.AddCell().SetString(col)
	}

	for i := range results {
		writeRow(sheet.AddRow(), &results[i])
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func writeRow(row *xlsx.Row, r *model.ExtractionResult) {
	row.AddCell().SetString(r.ID)
	row.AddCell().SetString(r.Filename)
	row.AddCell().SetString(string(r.Status))

	rec := r.Record
	if rec == nil {
		rec = &model.Record{}
	}
	row.AddCell().SetString(rec.AllTenantNames())
	row.AddCell().SetString(rec.Address.Street)
	row.AddCell().SetString(rec.Address.HouseNumber)
	row.AddCell().SetString(rec.Address.ZipCode)
	row.AddCell().SetString(rec.Address.City)
	setMoney(row.AddCell(), rec.WarmRent)
	setMoney(row.AddCell(), rec.ColdRent)
	setOptMoney(row.AddCell(), rec.UtilitiesCost)
	setOptMoney(row.AddCell(), rec.ParkingRent)
	setOptMoney(row.AddCell(), rec.DepositAmount)
	setOptFloat(row.AddCell(), rec.SquareMeters)
	setOptFloat(row.AddCell(), rec.NumberOfRooms)
	row.AddCell().SetString(string(rec.RentIncreaseType))
	setDate(row.AddCell(), rec.ContractStartDate)
	if rec.ContractEndDate != nil {
		setDate(row.AddCell(), *rec.ContractEndDate)
	} else {
		row.AddCell().SetString("")
	}
	row.AddCell().SetString(fmt.Sprintf("%t", rec.IsActive))

	rep := r.Report
	if rep == nil {
		rep = &model.QualityReport{}
	}
	row.AddCell().SetFloatWithFormat(rep.OverallScore, "0.0")
	row.AddCell().SetString(string(rep.QualityTier))
	row.AddCell().SetFloatWithFormat(rep.ConfidenceScore*100, "0.0")
	row.AddCell().SetFloatWithFormat(rep.CompletenessScore, "0.0")
	row.AddCell().SetFloatWithFormat(rep.ValidationScore, "0.0")
	row.AddCell().SetFloatWithFormat(rep.ConsistencyScore, "0.0")

	row.AddCell().SetInt64(r.ProcessingTimeMs)
	setDate(row.AddCell(), r.CreatedAt)
}

func setMoney(c *xlsx.Cell, v float64) {
	c.SetFloatWithFormat(v, "0.00")
}

func setOptMoney(c *xlsx.Cell, v *float64) {
	if v == nil {
		c.SetString("")
		return
	}
	c.SetFloatWithFormat(*v, "0.00")
}

func setOptFloat(c *xlsx.Cell, v *float64) {
	if v == nil {
		c.SetString("")
		return
	}
	c.SetFloat(*v)
}

func setDate(c *xlsx.Cell, t time.Time) {
	if t.IsZero() {
		c.SetString("")
		return
	}
	c.SetString(t.Format("2006-01-02"))
}

// SuggestFilename builds a timestamped default output name.
func SuggestFilename(now time.Time) string {
	return fmt.Sprintf("extractions_%s.xlsx", now.Format("20060102-150405"))
}
