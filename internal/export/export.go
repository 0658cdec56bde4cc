// Package export renders the booking list for spreadsheets. Output-only;
// there is no corresponding import path.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"festbook/internal/models"

	"github.com/xuri/excelize/v2"
)

// Header is the exported column set, in order.
var Header = []string{"Time", "Venue", "Venue Name", "Group ID", "User"}

const timeLayout = "2006-01-02 15:04:05"

// row resolves one booking against the snapshot's venue catalogue. Venue
// fields fall back to the raw id when the venue was deleted after booking.
func row(snap *models.Snapshot, b models.Booking) []string {
	shortName := b.VenueID
	name := "Unknown"
	if v := snap.Venue(b.VenueID); v != nil {
		shortName = v.ShortName
		name = v.Name
	}
	return []string{
		time.UnixMilli(b.Timestamp).Format(timeLayout),
		shortName,
		name,
		b.GroupID,
		b.UserName,
	}
}

// WriteCSV writes the bookings as CSV prefixed with a UTF-8 byte-order
// marker so spreadsheet applications pick the right encoding.
func WriteCSV(w io.Writer, snap models.Snapshot) error {
	if _, err := w.Write([]byte("\uFEFF")); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, b := range snap.Bookings {
		if err := cw.Write(row(&snap, b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the bookings as a single-sheet Excel workbook with a
// bold header row.
func WriteXLSX(w io.Writer, snap models.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(Header), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}

	for i, b := range snap.Bookings {
		for j, val := range row(&snap, b) {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
