package bill

import "strings"

// LineClass is the single role a statement line plays during parsing.
type LineClass int

const (
	// LineContinuation is any line that opens no new construct. It may
	// still be absorbed into a preceding item's continuation window.
	LineContinuation LineClass = iota

	// LineCategoryHeader opens a new charge category section.
	LineCategoryHeader

	// LineItemStart opens a charge line, anchored by a leading date.
	LineItemStart

	// LineSectionEnd terminates the itemized section of a page.
	LineSectionEnd
)

func (c LineClass) String() string {
	switch c {
	case LineCategoryHeader:
		return "category_header"
	case LineItemStart:
		return "item_start"
	case LineSectionEnd:
		return "section_end"
	default:
		return "continuation"
	}
}

// Classification is the class assigned to one line plus the category it
// names when the class is LineCategoryHeader.
type Classification struct {
	Class         LineClass
	CategoryCode  string
	CategoryLabel string
}

// Classifier assigns exactly one class to each line. Checks run in a fixed
// order: category header, item start, section end, continuation. The first
// hit wins, so a dated line inside a header never double-fires.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify inspects one whitespace-trimmed line.
func (c *Classifier) Classify(line string) Classification {
	for _, cat := range c.cfg.Categories {
		if strings.HasPrefix(line, cat.Label) || strings.Contains(line, ") "+cat.Label) {
			return Classification{
				Class:         LineCategoryHeader,
				CategoryCode:  cat.Code,
				CategoryLabel: cat.Label,
			}
		}
	}
	if datePattern.MatchString(line) {
		return Classification{Class: LineItemStart}
	}
	for _, marker := range c.cfg.EndMarkers {
		if strings.HasPrefix(line, marker) {
			return Classification{Class: LineSectionEnd}
		}
	}
	return Classification{Class: LineContinuation}
}
