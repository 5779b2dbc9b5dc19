// Package report renders priced products for the pricectl CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
	FormatXLSX  = "xlsx"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Pricing"

var columns = []string{
	"product_id",
	"category",
	"base_price",
	"adjusted_price",
	"price_change_percent",
	"predicted_sales",
	"competitor_price",
	"revenue_impact",
	"demand_multiplier",
	"rule_applied",
	"error",
}

// Write renders items in the named format.
func Write(w io.Writer, format string, items []models.PricedProduct) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, items)
	case FormatTable:
		return WriteTable(w, items)
	case FormatXLSX:
		return WriteXLSX(w, items)
	default:
		return fmt.Errorf("unknown output format %q (must be json, table, or xlsx)", format)
	}
}

// WriteJSON writes items as an indented JSON array.
func WriteJSON(w io.Writer, items []models.PricedProduct) error {
	if items == nil {
		items = []models.PricedProduct{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// WriteTable writes a human-readable summary, one product per line.
func WriteTable(w io.Writer, items []models.PricedProduct) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tCATEGORY\tBASE\tADJUSTED\tCHANGE\tCOMPETITOR\tREVENUE IMPACT\tRULES")

	for _, item := range items {
		base := money(item.BasePrice)
		if item.Failed() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\terror: %s\n", item.ProductID, item.Category, base, item.Error)
			continue
		}

		competitor := "-"
		if item.CompetitorPrice != nil {
			competitor = money(*item.CompetitorPrice)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\t%s\t%s\t%s\n",
			item.ProductID,
			item.Category,
			base,
			money(item.AdjustedPrice),
			decimal.NewFromFloat(item.PriceChangePercent).StringFixed(2),
			competitor,
			money(item.RevenueImpact),
			item.RuleApplied,
		)
	}
	return tw.Flush()
}

// WriteXLSX writes items to a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, items []models.PricedProduct) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", item.ProductID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func xlsxRow(item models.PricedProduct) []interface{} {
	row := []interface{}{item.ProductID, item.Category, item.BasePrice}
	if item.Failed() {
		return append(row, "", "", "", "", "", "", "", item.Error)
	}

	var competitor interface{} = ""
	if item.CompetitorPrice != nil {
		competitor = *item.CompetitorPrice
	}
	return append(row,
		item.AdjustedPrice,
		item.PriceChangePercent,
		item.PredictedSales,
		competitor,
		item.RevenueImpact,
		item.DemandMultiplier,
		item.RuleApplied,
		"",
	)
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
