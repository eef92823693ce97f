package bill

import (
	"strconv"
	"strings"
)

// Candidate is one assembled charge before the category tracker stamps it.
type Candidate struct {
	ChargeDate   string
	BilledText   string
	BilledAmount float64
}

// Assembler joins an item-start line with its continuation window and
// resolves the billed amount from the joined text.
type Assembler struct {
	cfg Config
}

func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the candidate for the item starting at lines[start]. The
// window covers at most cfg.MaxLookahead lines after the start; stop lines
// close the window early, skip lines and blanks are dropped from the join
// but still consume a window slot. ok is false when no parsable amount is
// present and the candidate must be discarded.
func (a *Assembler) Assemble(lines []string, start int) (Candidate, bool) {
	first := strings.TrimSpace(lines[start])
	parts := []string{first}
	for j := start + 1; j < len(lines) && j <= start+a.cfg.MaxLookahead; j++ {
		next := strings.TrimSpace(lines[j])
		if a.stopsWindow(next) {
			break
		}
		if next == "" || a.skipsLine(next) {
			continue
		}
		parts = append(parts, next)
	}
	joined := strings.Join(parts, " ")

	matches := amountPattern.FindAllString(joined, -1)
	if len(matches) == 0 {
		return Candidate{}, false
	}
	split := a.cfg.Disambiguate
	if split == nil {
		split = TrailingTotalSplit
	}
	amountText, billedText := split(joined, matches)
	amount, err := strconv.ParseFloat(strings.ReplaceAll(amountText, ",", ""), 64)
	if err != nil {
		return Candidate{}, false
	}

	return Candidate{
		ChargeDate:   firstToken(first),
		BilledText:   billedText,
		BilledAmount: amount,
	}, true
}

func (a *Assembler) stopsWindow(line string) bool {
	if datePattern.MatchString(line) {
		return true
	}
	for _, p := range a.cfg.StopPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	for _, m := range a.cfg.EndMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	for n := 1; n <= a.cfg.MaxNumbered; n++ {
		if strings.HasPrefix(line, strconv.Itoa(n)+")") {
			return true
		}
	}
	return false
}

func (a *Assembler) skipsLine(line string) bool {
	for _, p := range a.cfg.SkipPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func firstToken(line string) string {
	if fields := strings.Fields(line); len(fields) > 0 {
		return fields[0]
	}
	return line
}
