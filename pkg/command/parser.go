package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"datacap-hq/datacap/pkg/metering/account"
)

// Engine is the subset of the metering engine the command surface needs.
type Engine interface {
	Locked() bool
	AddAllotment(category account.Category, amount uint64, unit account.Unit) error
	Balance() uint64
	DailyAverage() uint64
}

// Parser turns free-text commands into engine operations.
type Parser struct {
	engine Engine
}

// NewParser creates a parser bound to the given engine.
func NewParser(engine Engine) *Parser {
	return &Parser{engine: engine}
}

// toppingRE matches "<category> <amount> <unit>". YouTube is accepted as
// an alias for the Video category.
var toppingRE = regexp.MustCompile(`(?i)^\s*(youtube|video|social|general)\s+(\d+)\s*(gb|mb)\s*$`)

// Topping is a parsed allotment purchase.
type Topping struct {
	Category account.Category
	Amount   uint64
	Unit     account.Unit
}

// ParseTopping parses an allotment command. Returns
// account.ErrInvalidCommand with a usage hint for anything that does not
// match.
func ParseTopping(cmd string) (Topping, error) {
	m := toppingRE.FindStringSubmatch(cmd)
	if m == nil {
		return Topping{}, fmt.Errorf("%w: try 'YouTube 2GB'", account.ErrInvalidCommand)
	}

	category := account.CategoryOrGeneral(m[1])
	if strings.EqualFold(m[1], "youtube") {
		category = account.CategoryVideo
	}

	amount, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil || amount == 0 {
		return Topping{}, fmt.Errorf("%w: amount must be a positive integer", account.ErrInvalidCommand)
	}

	unit, _ := account.ParseUnit(m[3])
	return Topping{Category: category, Amount: amount, Unit: unit}, nil
}

// Handle executes one command and returns the user-facing response.
// While the engine is locked, every command answers with an unlock prompt
// and nothing is mutated.
func (p *Parser) Handle(cmd string) string {
	if p.engine.Locked() {
		return "Unlock required."
	}

	if strings.EqualFold(strings.TrimSpace(cmd), "status") {
		return Insight(p.engine.Balance(), p.engine.DailyAverage())
	}

	topping, err := ParseTopping(cmd)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if err := p.engine.AddAllotment(topping.Category, topping.Amount, topping.Unit); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Added %d %s %s topping.", topping.Amount, topping.Unit, topping.Category)
}
