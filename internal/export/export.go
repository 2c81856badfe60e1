// Package export renders the admin referral ledger as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"truvamate/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheetName = "Referrals"

var headers = []string{"วันที่", "ผู้แนะนำ", "อีเมล", "เพื่อน", "อีเมล", "ค่าคอมมิชชั่น", "สถานะ"}

// Bangkok has no daylight saving.
var bangkok = time.FixedZone("ICT", 7*60*60)

// utf8BOM lets spreadsheet tools detect UTF-8 in the Thai headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ContentType returns the MIME type of format, or "" if unsupported.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return ""
}

// Filename is the download name of an export taken at now.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("referrals_%s.%s", now.UTC().Format("2006-01-02"), format)
}

// Write renders entries to w in the given format.
func Write(w io.Writer, format string, entries []service.ReferralEntry) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatXLSX:
		return WriteXLSX(w, entries)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func WriteCSV(w io.Writer, entries []service.ReferralEntry) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		row := []string{
			ThaiDate(e.CreatedAt),
			e.ReferrerName,
			e.ReferrerEmail,
			e.ReferredUserName,
			e.ReferredUserEmail,
			Baht(e.CommissionCents),
			StatusLabel(e.CommissionPaid),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, entries []service.ReferralEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", headerStyle); err != nil {
		return err
	}

	for i := range entries {
		e := &entries[i]
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			ThaiDate(e.CreatedAt),
			e.ReferrerName,
			e.ReferrerEmail,
			e.ReferredUserName,
			e.ReferredUserEmail,
			float64(e.CommissionCents) / 100,
			StatusLabel(e.CommissionPaid),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if len(entries) > 0 {
		last := fmt.Sprintf("F%d", len(entries)+1)
		if err := f.SetCellStyle(sheetName, "F2", last, moneyStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "G", 20); err != nil {
		return err
	}
	return f.Write(w)
}

// ThaiDate formats t as d/m/yyyy in the Buddhist era, Bangkok time.
func ThaiDate(t time.Time) string {
	t = t.In(bangkok)
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()+543)
}

// Baht renders minor units as a plain decimal amount.
func Baht(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func StatusLabel(paid bool) string {
	if paid {
		return "จ่ายแล้ว"
	}
	return "รอจ่าย"
}
