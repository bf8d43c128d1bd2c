// Package export writes the shops accepted by a run to a spreadsheet for review.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tcg-arena/shop-populator/internal/shop"
)

// SheetName is the sheet shops are written to.
const SheetName = "Shops"

// Header is the first row of the sheet.
var Header = []string{
	"place_id",
	"name",
	"address",
	"latitude",
	"longitude",
	"phone_number",
	"website_url",
	"tcg_types",
	"services",
	"description",
}

// XLSXSink collects records and writes them as one sheet.
type XLSXSink struct {
	records []*shop.Record
}

// NewXLSXSink creates an empty sink.
func NewXLSXSink() *XLSXSink {
	return &XLSXSink{}
}

// Add appends rec.
func (s *XLSXSink) Add(rec *shop.Record) {
	s.records = append(s.records, rec)
}

// Len returns the number of collected records.
func (s *XLSXSink) Len() int {
	return len(s.records)
}

// Save writes the header and one row per record to path.
func (s *XLSXSink) Save(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, Header)
	for _, rec := range s.records {
		addRow(sheet, []string{
			rec.PlaceID,
			rec.Name,
			rec.Address,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			rec.PhoneNumber,
			rec.WebsiteURL,
			rec.GameTypesText(),
			rec.ServicesText(),
			rec.Description,
		})
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ReadXLSX returns the rows of the Shops sheet in path, header included.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", SheetName)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
