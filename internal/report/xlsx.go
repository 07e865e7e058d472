package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

const sheet = "Daily"

// Headers are the columns of the daily performance sheet.
var Headers = []string{
	"Date", "Ad Spend", "Attributed Revenue", "Total Revenue", "Profit",
	"Orders", "New Customers", "ROAS", "CPC", "CPM", "CTR %", "Profit Margin %", "CAC",
}

func rowValues(r models.FactRow) []any {
	d := r.Derived
	return []any{
		r.Date, d.TotalSpend, d.TotalAttributedRevenue, d.TotalRevenue, d.TotalProfit,
		r.Business.Orders, r.Business.NewCustomers, d.ROAS, d.CPC, d.CPM, d.CTR, d.ProfitMargin, d.CustomerAcquisitionCost,
	}
}

// WriteDailyXLSX renders date-level fact rows as a one-sheet workbook.
func WriteDailyXLSX(w io.Writer, rows []models.FactRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := rowValues(r)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("row %s: %w", r.Date, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
