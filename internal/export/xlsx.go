// Package export renders a priced proposal as an XLSX quote sheet.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/batimetric/pricing-engine/internal/model"
)

const moneyFormat = "0.00"

// WriteXLSX writes the priced proposal to path with one sheet per section:
// Tasks, Materials, Summary. Unmatched materials are listed with an empty
// price column so the contractor can fill them in by hand.
func WriteXLSX(p *model.PricedProposal, path string) error {
	f := xlsx.NewFile()

	if err := writeTasks(f, p); err != nil {
		return err
	}
	if err := writeMaterials(f, p); err != nil {
		return err
	}
	if err := writeSummary(f, p); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func writeTasks(f *xlsx.File, p *model.PricedProposal) error {
	sheet, err := f.AddSheet("Tasks")
	if err != nil {
		return eris.Wrap(err, "export: add tasks sheet")
	}
	header(sheet, "Label", "Category", "Phase", "Hours", "Rate €/h", "Base €", "Adjustment €", "Adjusted €", "Total €")

	for _, t := range p.PricedTasks {
		row := sheet.AddRow()
		row.AddCell().Value = t.Label
		row.AddCell().Value = t.Category
		row.AddCell().Value = t.Phase
		row.AddCell().SetFloatWithFormat(t.DurationHours, moneyFormat)
		row.AddCell().SetFloatWithFormat(t.HourlyRate, moneyFormat)
		row.AddCell().SetFloatWithFormat(t.BaseCost, moneyFormat)
		row.AddCell().SetFloatWithFormat(t.FeedbackAdjustment, moneyFormat)
		row.AddCell().SetFloatWithFormat(t.AdjustedCost, moneyFormat)
		row.AddCell().SetFloatWithFormat(t.WithMargin, moneyFormat)
	}
	return nil
}

func writeMaterials(f *xlsx.File, p *model.PricedProposal) error {
	sheet, err := f.AddSheet("Materials")
	if err != nil {
		return eris.Wrap(err, "export: add materials sheet")
	}
	header(sheet, "Label", "Matched Product", "Qty", "Unit €", "Base €", "Adjustment €", "Adjusted €", "Total €", "Confidence")

	for _, m := range p.PricedMaterials {
		row := sheet.AddRow()
		row.AddCell().Value = m.Label
		if m.Match != nil {
			row.AddCell().Value = m.Match.Name
		} else {
			row.AddCell().Value = "(no match)"
		}
		row.AddCell().SetFloatWithFormat(m.Quantity, moneyFormat)
		addMoney(row, m.UnitPrice)
		addMoney(row, m.TotalPrice)
		row.AddCell().SetFloatWithFormat(m.FeedbackAdjustment, moneyFormat)
		addMoney(row, m.AdjustedCost)
		addMoney(row, m.WithMargin)
		row.AddCell().Value = fmt.Sprintf("%.1f%%", m.Confidence*100)
	}
	return nil
}

func writeSummary(f *xlsx.File, p *model.PricedProposal) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	rows := []struct {
		label string
		value float64
	}{
		{"Total tasks", p.Summary.TotalTasks},
		{"Total materials", p.Summary.TotalMaterials},
		{"Total", p.Summary.Total},
		{"Margin applied", p.Summary.MarginApplied},
	}
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().Value = r.label
		row.AddCell().SetFloatWithFormat(r.value, moneyFormat)
	}
	row := sheet.AddRow()
	row.AddCell().Value = "Currency"
	row.AddCell().Value = p.Summary.Currency
	return nil
}

func header(sheet *xlsx.Sheet, cols ...string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().Value = c
	}
}

func addMoney(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloatWithFormat(*v, moneyFormat)
	}
}
