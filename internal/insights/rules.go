package insights

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/kpi"
	"github.com/cleared-dev/glengine/internal/model"
)

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

type overdueShareRule struct {
	name string
	kind model.SourceKind
}

func (r overdueShareRule) Name() string { return r.name }

func (r overdueShareRule) Evaluate(in Input) []Flag {
	s, limit := in.AR, in.Thresholds.AROver90Share
	label := "receivables"
	if r.kind == model.SourceAP {
		s, limit = in.AP, in.Thresholds.APOver90Share
		label = "payables"
	}
	if s == nil {
		return nil
	}
	share := s.Share(aging.BucketOver90)
	if !share.Valid || !share.Decimal.GreaterThan(decimal.NewFromFloat(limit)) {
		return nil
	}
	return []Flag{{
		Rule:     r.name,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("%s of open %s is more than 90 days past due (threshold %s)",
			percent(share.Decimal), label, percent(decimal.NewFromFloat(limit))),
		Metric: share,
	}}
}

type negativeNetIncomeRule struct{}

func (negativeNetIncomeRule) Name() string { return "negative_net_income" }

func (negativeNetIncomeRule) Evaluate(in Input) []Flag {
	if in.Income == nil || !in.Income.NetIncome.IsNegative() {
		return nil
	}
	return []Flag{{
		Rule:     "negative_net_income",
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("Net loss of %s for the period", in.Income.NetIncome.Abs().StringFixed(2)),
		Metric:   decimal.NewNullDecimal(in.Income.NetIncome),
	}}
}

type minRatioRule struct {
	name  string
	kpi   string
	label string
}

func (r minRatioRule) Name() string { return r.name }

func (r minRatioRule) Evaluate(in Input) []Flag {
	floor := in.Thresholds.MinCurrentRatio
	if r.kpi == kpi.QuickRatio {
		floor = in.Thresholds.MinQuickRatio
	}
	v := in.KPIs.Get(r.kpi)
	if !v.Valid || !v.Decimal.LessThan(decimal.NewFromFloat(floor)) {
		return nil
	}
	return []Flag{{
		Rule:     r.name,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%s %s is below %s", r.label, v.Decimal.StringFixed(2), decimal.NewFromFloat(floor).StringFixed(2)),
		Metric:   v,
	}}
}

type highDSORule struct{}

func (highDSORule) Name() string { return "high_dso" }

func (highDSORule) Evaluate(in Input) []Flag {
	v := in.KPIs.Get(kpi.DaysSalesOutstanding)
	limit := decimal.NewFromFloat(in.Thresholds.MaxDSO)
	if !v.Valid || !v.Decimal.GreaterThan(limit) {
		return nil
	}
	return []Flag{{
		Rule:     "high_dso",
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Customers take %s days to pay on average (threshold %s)", v.Decimal.StringFixed(1), limit.StringFixed(0)),
		Metric:   v,
	}}
}

type decliningForecastRule struct{}

func (decliningForecastRule) Name() string { return "declining_forecast" }

func (decliningForecastRule) Evaluate(in Input) []Flag {
	if in.Forecast == nil {
		return nil
	}
	proj := in.Forecast.Projection()
	last, ok := in.Forecast.Last()
	if len(proj) == 0 || !ok {
		return nil
	}
	next := decimal.NewFromFloat(proj[0].Smoothed).Round(2)
	if !next.LessThan(last) {
		return nil
	}
	return []Flag{{
		Rule:     "declining_forecast",
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Revenue forecast %s is below last month's %s", next.StringFixed(2), last.StringFixed(2)),
		Metric:   decimal.NewNullDecimal(next),
	}}
}

type creditLimitRule struct{}

func (creditLimitRule) Name() string { return "credit_limit" }

func (creditLimitRule) Evaluate(in Input) []Flag {
	if in.AR == nil {
		return nil
	}
	limits := make(map[string]model.Customer, len(in.Customers))
	for _, c := range in.Customers {
		limits[c.ID] = c
	}
	var flags []Flag
	for _, p := range in.AR.ByCounterparty {
		c, ok := limits[p.CounterpartyID]
		if !ok || !c.CreditLimit.IsPositive() || !p.Open.GreaterThan(c.CreditLimit) {
			continue
		}
		flags = append(flags, Flag{
			Rule:     "credit_limit",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Customer %s owes %s, over the %s credit limit", displayName(c), p.Open.StringFixed(2), c.CreditLimit.StringFixed(2)),
			Metric:   decimal.NewNullDecimal(p.Open),
		})
	}
	return flags
}

type concentrationRule struct{}

func (concentrationRule) Name() string { return "customer_concentration" }

func (concentrationRule) Evaluate(in Input) []Flag {
	if in.AR == nil || !in.AR.Total.IsPositive() || len(in.AR.ByCounterparty) < 2 {
		return nil
	}
	top := in.AR.ByCounterparty[0]
	for _, p := range in.AR.ByCounterparty[1:] {
		if p.Open.GreaterThan(top.Open) {
			top = p
		}
	}
	share := top.Open.Div(in.AR.Total)
	limit := decimal.NewFromFloat(in.Thresholds.CustomerConcentrate)
	if !share.GreaterThan(limit) {
		return nil
	}
	name := top.CounterpartyID
	for _, c := range in.Customers {
		if c.ID == top.CounterpartyID {
			name = displayName(c)
		}
	}
	return []Flag{{
		Rule:     "customer_concentration",
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Customer %s holds %s of open receivables", name, percent(share)),
		Metric:   decimal.NewNullDecimal(share),
	}}
}

func displayName(c model.Customer) string {
	if strings.TrimSpace(c.Name) == "" {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
