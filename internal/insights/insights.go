// Package insights turns computed figures into plain-language flags. Rules
// only read finished output; they never touch the ledger.
package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/forecast"
	"github.com/cleared-dev/glengine/internal/kpi"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/statements"
)

// Severity ranks a flag.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Flag is one finding.
type Flag struct {
	Rule     string
	Severity Severity
	Message  string
	Metric   decimal.NullDecimal
}

// Input is the finished output the rules inspect. Forecast and the aging
// schedules may be nil.
type Input struct {
	KPIs       kpi.Set
	Income     *statements.IncomeStatement
	AR         *aging.Schedule
	AP         *aging.Schedule
	Forecast   *forecast.Result
	Customers  []model.Customer
	Thresholds config.InsightsConfig
}

// Rule inspects Input and reports zero or more flags.
type Rule interface {
	Name() string
	Evaluate(in Input) []Flag
}

// Registry holds named rules.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Panics on duplicate name.
func (r *Registry) Register(rule Rule) {
	name := rule.Name()
	if _, ok := r.rules[name]; ok {
		panic("duplicate insight rule: " + name)
	}
	r.rules[name] = rule
}

// Get returns the rule named name, or nil.
func (r *Registry) Get(name string) Rule {
	return r.rules[name]
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for n := range r.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Evaluate runs every rule and returns the flags ordered by severity, most
// severe first, then by rule name.
func (r *Registry) Evaluate(in Input) []Flag {
	var flags []Flag
	for _, name := range r.Names() {
		flags = append(flags, r.rules[name].Evaluate(in)...)
	}
	sort.SliceStable(flags, func(i, j int) bool {
		a, b := flags[i], flags[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() > b.Severity.rank()
		}
		return a.Rule < b.Rule
	})
	return flags
}

// DefaultRegistry returns a registry with all built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(overdueShareRule{name: "ar_over_90", kind: model.SourceAR})
	r.Register(overdueShareRule{name: "ap_over_90", kind: model.SourceAP})
	r.Register(negativeNetIncomeRule{})
	r.Register(minRatioRule{name: "low_current_ratio", kpi: kpi.CurrentRatio, label: "Current ratio"})
	r.Register(minRatioRule{name: "low_quick_ratio", kpi: kpi.QuickRatio, label: "Quick ratio"})
	r.Register(highDSORule{})
	r.Register(decliningForecastRule{})
	r.Register(creditLimitRule{})
	r.Register(concentrationRule{})
	return r
}
