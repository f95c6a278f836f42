package workflow

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ShiftSummary is the owner's period report: cash taken, credit posted,
// and served counts per station for a time window.
type ShiftSummary struct {
	From          time.Time                    `json:"from"`
	To            time.Time                    `json:"to"`
	CashCollected decimal.Decimal              `json:"cash_collected"`
	CreditPosted  decimal.Decimal              `json:"credit_posted"`
	ServedItems   map[models.StationRole]int64 `json:"served_items"`
}

func BuildShiftSummary(ctx context.Context, from, to time.Time) (*ShiftSummary, error) {
	logger := config.GetLogger()
	db := config.GetDB().WithContext(ctx)

	cash, err := models.SumPaymentsBetween(db, from, to)
	if err != nil {
		config.LogError(logger, "reportWorkflow.go", "BuildShiftSummary", "SumPaymentsBetween", nil, err)
		return nil, err
	}
	credit, err := models.SumCreditPostedBetween(db, from, to)
	if err != nil {
		config.LogError(logger, "reportWorkflow.go", "BuildShiftSummary", "SumCreditPostedBetween", nil, err)
		return nil, err
	}
	served, err := models.CountServedByStationBetween(db, from, to)
	if err != nil {
		config.LogError(logger, "reportWorkflow.go", "BuildShiftSummary", "CountServedByStationBetween", nil, err)
		return nil, err
	}

	return &ShiftSummary{
		From:          from,
		To:            to,
		CashCollected: cash,
		CreditPosted:  credit,
		ServedItems:   served,
	}, nil
}

// ExportShiftSummaryXLSX renders the summary as a one-sheet workbook for
// the owner download.
func ExportShiftSummaryXLSX(summary *ShiftSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Shift Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"From", summary.From.Format(time.RFC3339)},
		{"To", summary.To.Format(time.RFC3339)},
		{"Cash collected", summary.CashCollected.String()},
		{"Credit posted", summary.CreditPosted.String()},
		{"Served (barista)", summary.ServedItems[models.StationRoleBarista]},
		{"Served (shisha)", summary.ServedItems[models.StationRoleShisha]},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
