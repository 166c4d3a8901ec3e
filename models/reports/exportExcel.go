package reports

import (
	"io"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/workflow"
	"github.com/xuri/excelize/v2"
)

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type sheet struct {
	name     string
	headings []string
	rows     []ExcelExporter
}

// newWorkbook writes each sheet with a bold heading row. The default
// "Sheet1" is renamed to the first sheet.
func newWorkbook(sheets ...sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}

		for col, h := range s.headings {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(s.name, cell, h); err != nil {
				return nil, err
			}
		}
		if len(s.headings) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(s.headings), 1)
			if err := f.SetCellStyle(s.name, "A1", last, bold); err != nil {
				return nil, err
			}
		}

		for rowNo, d := range s.rows {
			for col, value := range d.GetCellValues() {
				cell, err := excelize.CoordinatesToCellName(col+1, rowNo+2)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(s.name, cell, value); err != nil {
					return nil, err
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

type itemValuationRow workflow.ItemValuation

func (r itemValuationRow) GetCellValues() []interface{} {
	return []interface{}{r.Name, string(r.Kind), r.Unit, r.Quantity.InexactFloat64(), r.AverageCost.InexactFloat64(), r.Value.InexactFloat64()}
}

type finishedGoodRow workflow.FinishedGoodStock

func (r finishedGoodRow) GetCellValues() []interface{} {
	return []interface{}{r.Brand, r.ProductName, r.PackSize, r.OnHand.InexactFloat64(), r.AverageCost.InexactFloat64(), r.Value.InexactFloat64()}
}

type totalRow struct {
	label string
	value float64
}

func (r totalRow) GetCellValues() []interface{} {
	return []interface{}{r.label, "", "", "", "", r.value}
}

func ValuationWorkbook(v workflow.Valuation) (*excelize.File, error) {
	items := make([]ExcelExporter, 0, len(v.Items)+1)
	for _, it := range v.Items {
		items = append(items, itemValuationRow(it))
	}
	items = append(items, totalRow{"Total", v.StockTotal.InexactFloat64()})

	goods := make([]ExcelExporter, 0, len(v.FinishedGoods)+1)
	for _, fg := range v.FinishedGoods {
		goods = append(goods, finishedGoodRow(fg))
	}
	goods = append(goods, totalRow{"Total", v.FinishedGoodsTotal.InexactFloat64()})

	return newWorkbook(
		sheet{"Stock Items", []string{"Name", "Kind", "Unit", "Quantity", "AverageCost", "Value"}, items},
		sheet{"Finished Goods", []string{"Brand", "Product", "PackSize", "OnHand", "AverageCost", "Value"}, goods},
	)
}

type partyBalanceRow workflow.PartyBalanceRow

func (r partyBalanceRow) GetCellValues() []interface{} {
	return []interface{}{r.Name, string(r.Type), r.Balance.InexactFloat64()}
}

func PartyBalancesWorkbook(rows []workflow.PartyBalanceRow) (*excelize.File, error) {
	data := make([]ExcelExporter, 0, len(rows))
	for _, r := range rows {
		data = append(data, partyBalanceRow(r))
	}
	return newWorkbook(sheet{"Balances", []string{"Party", "Type", "Balance"}, data})
}

type movementRow struct {
	m    models.InventoryMovement
	name string
}

func (r movementRow) GetCellValues() []interface{} {
	reverses := ""
	if r.m.ReversesMovementId != nil {
		reverses = *r.m.ReversesMovementId
	}
	return []interface{}{
		r.m.EffectiveDate.Format("2006-01-02"),
		r.name,
		string(r.m.Reason),
		string(r.m.SourceType),
		r.m.SourceId,
		r.m.QtyDelta.InexactFloat64(),
		r.m.UnitCost.InexactFloat64(),
		r.m.TotalCost.InexactFloat64(),
		reverses,
	}
}

// MovementsWorkbook lists movements; itemNames maps stock item ids to names,
// finished goods show their key.
func MovementsWorkbook(movements []models.InventoryMovement, itemNames map[string]string) (*excelize.File, error) {
	data := make([]ExcelExporter, 0, len(movements))
	for _, m := range movements {
		name := m.ItemId
		if n, ok := itemNames[m.ItemId]; ok {
			name = n
		}
		data = append(data, movementRow{m: m, name: name})
	}
	return newWorkbook(sheet{"Movements", []string{"Date", "Item", "Reason", "Source", "SourceId", "Quantity", "UnitCost", "TotalCost", "Reverses"}, data})
}

func Write(w io.Writer, f *excelize.File) error {
	defer f.Close()
	return f.Write(w)
}
