package round

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyBetTable  = errors.New("bet table is empty")
	ErrInvalidBetStep = errors.New("bet steps must be positive")
	ErrBetNotAllowed  = errors.New("bet amount is not in the step table")
)

// BetTable is the ascending, deduplicated set of bet amounts a round may use
type BetTable struct {
	steps []decimal.Decimal
	def   int
}

// NewBetTable sorts and deduplicates values. def must be one of the values;
// if it is not, the smallest step becomes the default.
func NewBetTable(values []decimal.Decimal, def decimal.Decimal) (*BetTable, error) {
	if len(values) == 0 {
		return nil, ErrEmptyBetTable
	}

	sorted := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if !v.IsPositive() {
			return nil, ErrInvalidBetStep
		}
		sorted = append(sorted, v)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	steps := sorted[:1]
	for _, v := range sorted[1:] {
		if !v.Equal(steps[len(steps)-1]) {
			steps = append(steps, v)
		}
	}

	t := &BetTable{steps: steps}
	if i := t.Index(def); i >= 0 {
		t.def = i
	}
	return t, nil
}

// DefaultBetTable returns the game's standard steps with 1 as the default bet
func DefaultBetTable() *BetTable {
	var values []decimal.Decimal
	tenth := decimal.New(1, -1)
	for i := int64(1); i <= 9; i++ {
		values = append(values, tenth.Mul(decimal.NewFromInt(i)))
	}
	values = append(values, decimal.NewFromInt(1))
	for _, v := range []string{"1.2", "1.4", "1.6", "1.8"} {
		values = append(values, decimal.RequireFromString(v))
	}
	for i := int64(2); i <= 10; i++ {
		values = append(values, decimal.NewFromInt(i))
	}
	for i := int64(15); i <= 100; i += 5 {
		values = append(values, decimal.NewFromInt(i))
	}
	for i := int64(125); i <= 1000; i += 25 {
		values = append(values, decimal.NewFromInt(i))
	}

	t, err := NewBetTable(values, decimal.NewFromInt(1))
	if err != nil {
		panic(err)
	}
	return t
}

// Steps returns a copy of the table
func (t *BetTable) Steps() []decimal.Decimal {
	out := make([]decimal.Decimal, len(t.steps))
	copy(out, t.steps)
	return out
}

// Index returns the position of v or -1
func (t *BetTable) Index(v decimal.Decimal) int {
	i := sort.Search(len(t.steps), func(i int) bool { return !t.steps[i].LessThan(v) })
	if i < len(t.steps) && t.steps[i].Equal(v) {
		return i
	}
	return -1
}

func (t *BetTable) Contains(v decimal.Decimal) bool {
	return t.Index(v) >= 0
}

func (t *BetTable) Default() decimal.Decimal {
	return t.steps[t.def]
}

func (t *BetTable) Min() decimal.Decimal {
	return t.steps[0]
}

func (t *BetTable) Max() decimal.Decimal {
	return t.steps[len(t.steps)-1]
}

// Next returns the step after v, clamped at the top. Values outside the
// table snap to the default.
func (t *BetTable) Next(v decimal.Decimal) decimal.Decimal {
	i := t.Index(v)
	if i < 0 {
		return t.Default()
	}
	if i < len(t.steps)-1 {
		i++
	}
	return t.steps[i]
}

// Prev returns the step before v, clamped at the bottom
func (t *BetTable) Prev(v decimal.Decimal) decimal.Decimal {
	i := t.Index(v)
	if i < 0 {
		return t.Default()
	}
	if i > 0 {
		i--
	}
	return t.steps[i]
}
