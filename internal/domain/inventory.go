package domain

// Element status values reported by the structural analysis phase.
const (
	StatusCorrect  = "CORRECT"
	StatusNeedsFix = "NEEDS_FIX"
)

// Position locates an element in percentage units, 0-100 on both axes.
type Position struct {
	XRange []float64 `json:"x_range,omitempty"`
	YRange []float64 `json:"y_range,omitempty"`
	Center []float64 `json:"center,omitempty"`
}

// Block is one boxed component of the figure.
type Block struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Position    Position `json:"position"`
	Style       string   `json:"style,omitempty"`
	Content     []string `json:"content,omitempty"`
	SubElements []string `json:"sub_elements,omitempty"`
	Status      string   `json:"status"`
	Issues      []string `json:"issues,omitempty"`
}

// Endpoint names one end of a connection.
type Endpoint struct {
	ElementID string   `json:"element_id,omitempty"`
	Position  Position `json:"position,omitempty"`
}

// Connection is an arrow or line between two elements.
type Connection struct {
	ID     string   `json:"id"`
	Type   string   `json:"type,omitempty"`
	From   Endpoint `json:"from"`
	To     Endpoint `json:"to"`
	Style  string   `json:"style,omitempty"`
	Label  string   `json:"label,omitempty"`
	Status string   `json:"status"`
	Issues []string `json:"issues,omitempty"`
}

// TextElement is free-standing text outside any block.
type TextElement struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Position    Position `json:"position,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	Style       string   `json:"style,omitempty"`
	Status      string   `json:"status"`
	Issues      []string `json:"issues,omitempty"`
}

// InventorySummary carries the element counts the analysis phase reports.
type InventorySummary struct {
	TotalBlocks      int `json:"total_blocks"`
	TotalConnections int `json:"total_connections"`
	TotalText        int `json:"total_text_elements"`
	NeedsFix         int `json:"needs_fix_count"`
}

// Inventory is the structured catalog of a figure's visual elements produced
// by the supervisor's analysis phase, with positions in percentage units.
type Inventory struct {
	CoordinateSystem string           `json:"coordinate_system"`
	Blocks           []Block          `json:"blocks"`
	Connections      []Connection     `json:"connections"`
	TextElements     []TextElement    `json:"text_elements"`
	Background       string           `json:"background,omitempty"`
	Summary          InventorySummary `json:"summary"`
}

// Normalize enforces the status/issues invariant on model output: a CORRECT
// element carries no issues, and a NEEDS_FIX element always carries at least
// one. It also recomputes the summary counts from the elements themselves.
func (inv *Inventory) Normalize() {
	fixCount := 0
	for i := range inv.Blocks {
		normalizeStatus(&inv.Blocks[i].Status, &inv.Blocks[i].Issues, &fixCount)
	}
	for i := range inv.Connections {
		normalizeStatus(&inv.Connections[i].Status, &inv.Connections[i].Issues, &fixCount)
	}
	for i := range inv.TextElements {
		normalizeStatus(&inv.TextElements[i].Status, &inv.TextElements[i].Issues, &fixCount)
	}
	inv.Summary = InventorySummary{
		TotalBlocks:      len(inv.Blocks),
		TotalConnections: len(inv.Connections),
		TotalText:        len(inv.TextElements),
		NeedsFix:         fixCount,
	}
}

func normalizeStatus(status *string, issues *[]string, fixCount *int) {
	switch {
	case len(*issues) > 0:
		// Reported issues win over the status flag.
		*status = StatusNeedsFix
	case *status == StatusNeedsFix:
		*issues = []string{"flagged by analysis without details"}
	default:
		*status = StatusCorrect
		*issues = nil
	}
	if *status == StatusNeedsFix {
		*fixCount++
	}
}

// NeedsFixCount returns the number of elements flagged for correction.
func (inv *Inventory) NeedsFixCount() int {
	return inv.Summary.NeedsFix
}
