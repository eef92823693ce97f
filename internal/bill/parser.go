package bill

import (
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

// Page is the engine's input unit: one statement page as trimmed text
// lines plus the raw page text. Blank lines stay in Lines since they
// occupy continuation window slots.
type Page struct {
	Number int // 1-based
	Lines  []string
	Text   string
}

// Parser walks statement pages line by line and produces the ordered
// charge list and the concession summary. It holds no per-document state,
// so one Parser serves concurrent documents.
type Parser struct {
	cfg        Config
	classifier *Classifier
	assembler  *Assembler
	logger     *zap.Logger
}

func NewParser(cfg Config, logger *zap.Logger) *Parser {
	return &Parser{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		assembler:  NewAssembler(cfg),
		logger:     logger,
	}
}

// Parse processes pages in order. Each line is classified exactly once;
// item starts pull in their continuation window, but the window lines are
// still revisited by the scan, so a header inside a window still switches
// the category and a dated window line still opens its own item. A section
// end flushes the buffer and abandons the rest of the page.
func (p *Parser) Parse(pages []Page) *models.BillDocument {
	tracker := NewTracker()
	for _, page := range pages {
		p.parsePage(page, tracker)
		tracker.Flush()
	}

	doc := &models.BillDocument{
		Items:      tracker.Items(),
		Concession: ExtractConcessions(pages),
		PageCount:  len(pages),
	}
	p.logger.Debug("Bill statement parsed",
		zap.Int("pages", doc.PageCount),
		zap.Int("items", len(doc.Items)),
		zap.Float64("total_billed", doc.TotalBilled()))
	return doc
}

func (p *Parser) parsePage(page Page, tracker *Tracker) {
	for i := 0; i < len(page.Lines); i++ {
		line := strings.TrimSpace(page.Lines[i])
		cl := p.classifier.Classify(line)
		switch cl.Class {
		case LineCategoryHeader:
			tracker.SetCategory(cl.CategoryCode, cl.CategoryLabel)
		case LineItemStart:
			if cand, ok := p.assembler.Assemble(page.Lines, i); ok {
				tracker.Add(cand, page.Number)
			}
		case LineSectionEnd:
			tracker.Flush()
			return
		}
	}
}
