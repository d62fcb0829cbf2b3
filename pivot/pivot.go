// Package pivot arranges a flat product list into titled row/column tables
// for catalog-style entry grids.
package pivot

import (
	"encoding/json"

	"orderdesk/models"
	"orderdesk/utils"
)

type cellKey struct{ row, col string }

// Table is one titled grid. Rows and Cols are in first-appearance order and
// leave out blank titles; Lookup still finds products filed under a blank
// row or column.
type Table struct {
	Title string
	Rows  []string
	Cols  []string

	cells   map[cellKey]models.Product
	rowSeen map[string]bool
	colSeen map[string]bool
}

func newTable(title string) *Table {
	return &Table{
		Title:   title,
		cells:   map[cellKey]models.Product{},
		rowSeen: map[string]bool{},
		colSeen: map[string]bool{},
	}
}

func (t *Table) put(row, col string, p models.Product) {
	if row != "" && !t.rowSeen[row] {
		t.rowSeen[row] = true
		t.Rows = append(t.Rows, row)
	}
	if col != "" && !t.colSeen[col] {
		t.colSeen[col] = true
		t.Cols = append(t.Cols, col)
	}
	// last write wins on collision
	t.cells[cellKey{row, col}] = p
}

// Lookup returns the product at (row, col). An empty cell is not an error.
func (t *Table) Lookup(row, col string) (models.Product, bool) {
	p, ok := t.cells[cellKey{row, col}]
	return p, ok
}

// Len is the number of filled cells
func (t *Table) Len() int { return len(t.cells) }

// Grid returns the cells row by row, nil where no product is filed
func (t *Table) Grid() [][]*models.Product {
	grid := make([][]*models.Product, len(t.Rows))
	for i, row := range t.Rows {
		grid[i] = make([]*models.Product, len(t.Cols))
		for j, col := range t.Cols {
			if p, ok := t.cells[cellKey{row, col}]; ok {
				grid[i][j] = &p
			}
		}
	}
	return grid
}

// MarshalJSON writes the table as title, rows, cols and the cell grid
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title string              `json:"title"`
		Rows  []string            `json:"rows"`
		Cols  []string            `json:"cols"`
		Cells [][]*models.Product `json:"cells"`
	}{t.Title, nonNil(t.Rows), nonNil(t.Cols), t.Grid()})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Catalog is the set of tables in first-appearance order
type Catalog struct {
	Tables  []*Table `json:"tables"`
	byTitle map[string]*Table
}

// Table returns the table with the given title
func (c *Catalog) Table(title string) (*Table, bool) {
	t, ok := c.byTitle[title]
	return t, ok
}

// Group files every product under each of its comma separated table titles.
// The i-th table title pairs with the i-th column title; a missing column
// title is "". Products without any table title are left out, as are blank
// titles inside the list.
func Group(products []models.Product) *Catalog {
	c := &Catalog{Tables: []*Table{}, byTitle: map[string]*Table{}}
	for _, p := range products {
		titles := utils.SplitList(p.TableTitle)
		if len(titles) == 0 {
			continue
		}
		cols := utils.SplitList(p.TableColTitle)
		row := utils.FirstNonEmpty(p.TableRowTitle)
		for i, title := range titles {
			if title == "" {
				continue
			}
			t, ok := c.byTitle[title]
			if !ok {
				t = newTable(title)
				c.byTitle[title] = t
				c.Tables = append(c.Tables, t)
			}
			t.put(row, utils.At(cols, i), p)
		}
	}
	return c
}
