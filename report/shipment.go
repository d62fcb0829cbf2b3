package report

import (
	"fmt"

	"orderdesk/models"
	"orderdesk/utils"
)

// ShipmentDraft holds per-line shipment quantities for a batch shipment.
// Every input is clamped to [0, line quantity].
type ShipmentDraft struct {
	lines  []SaleLine
	byID   map[string]int
	inputs map[string]int
}

// NewShipmentDraft starts a draft over lines with nothing selected
func NewShipmentDraft(lines []SaleLine) *ShipmentDraft {
	d := &ShipmentDraft{
		lines:  append([]SaleLine(nil), lines...),
		byID:   make(map[string]int, len(lines)),
		inputs: map[string]int{},
	}
	for i, l := range d.lines {
		d.byID[l.ID] = i
	}
	return d
}

// Set records the raw input for a line and returns the clamped quantity
func (d *ShipmentDraft) Set(lineID, raw string) (int, error) {
	i, ok := d.byID[lineID]
	if !ok {
		return 0, fmt.Errorf("unknown sale line %s", lineID)
	}
	qty := clampQty(utils.ParseQuantity(raw), d.lines[i].Quantity)
	d.inputs[lineID] = qty
	return qty, nil
}

// Input returns the quantity recorded for a line
func (d *ShipmentDraft) Input(lineID string) int {
	return d.inputs[lineID]
}

// Selected reports whether a line ships in full
func (d *ShipmentDraft) Selected(lineID string) bool {
	i, ok := d.byID[lineID]
	return ok && d.inputs[lineID] >= d.lines[i].Quantity
}

// SelectAll ships every line of a customer in full, or nothing when checked is false
func (d *ShipmentDraft) SelectAll(customer string, checked bool) {
	for _, l := range d.lines {
		if l.Customer != customer {
			continue
		}
		if checked {
			d.inputs[l.ID] = l.Quantity
		} else {
			d.inputs[l.ID] = 0
		}
	}
}

// GroupSelected reports whether every line of a customer ships in full
func (d *ShipmentDraft) GroupSelected(customer string) bool {
	found := false
	for _, l := range d.lines {
		if l.Customer != customer {
			continue
		}
		found = true
		if !d.Selected(l.ID) {
			return false
		}
	}
	return found
}

// Payload builds the shipment body from lines with a positive quantity
func (d *ShipmentDraft) Payload(date string) models.ShipmentPayload {
	payload := models.ShipmentPayload{Date: date, Lines: []models.ShipmentLine{}}
	for _, l := range d.lines {
		qty := d.inputs[l.ID]
		if qty <= 0 {
			continue
		}
		payload.Lines = append(payload.Lines, models.ShipmentLine{
			SerialNumber:   l.SerialNumber,
			Code:           l.Code,
			OrderRowNumber: l.RowNumber,
			Quantity:       qty,
		})
	}
	return payload
}

func clampQty(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
