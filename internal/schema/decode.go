package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
)

// Dataset is the validated, typed input of one run.
type Dataset struct {
	Accounts    []model.Account
	Customers   []model.Customer
	Vendors     []model.Vendor
	Items       []model.Item
	AR          []model.SourceEntry
	AP          []model.SourceEntry
	Cashbook    []model.CashbookEntry
	Adjustments []model.AdjustmentLine

	// Present lists the optional tables that were supplied.
	Present map[string]bool
}

// Decode validates every supplied table and cross-references between them.
// The chart of accounts is required; every other table may be absent.
func Decode(tables map[string]RawTable, c *Collector) (*Dataset, error) {
	ds := &Dataset{Present: make(map[string]bool)}
	for name, t := range tables {
		if t.Present() {
			ds.Present[name] = true
		}
	}
	if !ds.Present[TableAccounts] {
		return nil, c.Add(apperrors.RowFailure{Table: TableAccounts, Reason: "table is required"})
	}

	var err error
	if ds.Accounts, err = DecodeAccounts(tables[TableAccounts], c); err != nil {
		return nil, err
	}
	if ds.Customers, err = DecodeCustomers(tables[TableCustomers], c); err != nil {
		return nil, err
	}
	if ds.Vendors, err = DecodeVendors(tables[TableVendors], c); err != nil {
		return nil, err
	}
	if ds.Items, err = DecodeItems(tables[TableItems], c); err != nil {
		return nil, err
	}
	if ds.AR, err = DecodeSources(model.SourceAR, tables[TableAREntries], c); err != nil {
		return nil, err
	}
	if ds.AP, err = DecodeSources(model.SourceAP, tables[TableAPEntries], c); err != nil {
		return nil, err
	}
	if ds.Cashbook, err = DecodeCashbook(tables[TableCashbook], c); err != nil {
		return nil, err
	}
	if ds.Adjustments, err = DecodeAdjustments(tables[TableAdjustments], c); err != nil {
		return nil, err
	}
	if err := ds.checkReferences(c); err != nil {
		return nil, err
	}
	return ds, nil
}

// decodeTable validates raw against t, builds a value per record and runs
// the struct rules on it. Rows that fail either step are handed to c.
// rename maps struct field names onto the column names of t.
func decodeTable[T any](t Table, raw RawTable, c *Collector, rename map[string]string, build func(Record) T) ([]T, error) {
	if !raw.Present() {
		return nil, nil
	}
	records, failures := Validate(t, raw)
	if err := c.Add(failures...); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v := build(rec)
		fails := checkStruct(t.Name, rec.Row, v)
		if len(fails) > 0 {
			for i := range fails {
				if col, ok := rename[fails[i].Column]; ok {
					fails[i].Column = col
				}
			}
			if err := c.Add(fails...); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeAccounts reads chart_of_accounts rows.
func DecodeAccounts(raw RawTable, c *Collector) ([]model.Account, error) {
	return decodeTable(ChartOfAccounts, raw, c, nil, func(r Record) model.Account {
		typ, err := model.ParseAccountType(r.String("Type"))
		if err != nil {
			// Left unparsed so the oneof rule reports the raw value.
			typ = model.AccountType(r.String("Type"))
		}
		return model.Account{
			ID:       r.Int("AccountID"),
			Name:     r.String("Name"),
			Type:     typ,
			ParentID: r.Int("ParentID"),
			IsActive: r.Bool("IsActive"),
		}
	})
}

// DecodeCustomers reads customers rows.
func DecodeCustomers(raw RawTable, c *Collector) ([]model.Customer, error) {
	return decodeTable(Customers, raw, c, nil, func(r Record) model.Customer {
		return model.Customer{
			ID:          r.String("CustomerID"),
			Name:        r.String("Name"),
			Terms:       r.String("Terms"),
			CreditLimit: r.Decimal("CreditLimit"),
		}
	})
}

// DecodeVendors reads vendors rows.
func DecodeVendors(raw RawTable, c *Collector) ([]model.Vendor, error) {
	return decodeTable(Vendors, raw, c, nil, func(r Record) model.Vendor {
		return model.Vendor{
			ID:      r.String("VendorID"),
			Name:    r.String("Name"),
			Terms:   r.String("Terms"),
			Contact: r.String("Contact"),
		}
	})
}

// DecodeItems reads items rows.
func DecodeItems(raw RawTable, c *Collector) ([]model.Item, error) {
	return decodeTable(Items, raw, c, nil, func(r Record) model.Item {
		return model.Item{
			Row:              r.Row,
			ID:               r.String("ItemID"),
			Name:             r.String("Name"),
			SKU:              r.String("SKU"),
			Type:             r.String("Type"),
			UnitPrice:        r.Decimal("UnitPrice"),
			COGSAccount:      r.Int("COGSAccount"),
			RevenueAccount:   r.Int("RevenueAccount"),
			InventoryAccount: r.Int("InventoryAccount"),
		}
	})
}

// DecodeSources reads ar_entries or ap_entries rows.
func DecodeSources(kind model.SourceKind, raw RawTable, c *Collector) ([]model.SourceEntry, error) {
	t, counterparty := AREntries, "CustomerID"
	if kind == model.SourceAP {
		t, counterparty = APEntries, "VendorID"
	}
	// Struct rules name the shared field; report the column the file uses.
	rename := map[string]string{"CounterpartyID": counterparty}
	return decodeTable(t, raw, c, rename, func(r Record) model.SourceEntry {
		return model.SourceEntry{
			Kind:           kind,
			Row:            r.Row,
			EntryID:        r.String("EntryID"),
			CounterpartyID: r.String(counterparty),
			InvoiceNo:      r.String("InvoiceNo"),
			InvoiceDate:    r.Date("InvoiceDate"),
			DueDate:        r.Date("DueDate"),
			AccountID:      r.Int("AccountID"),
			Amount:         r.Decimal("Amount"),
			Tax:            r.Decimal("Tax"),
			PaidAmount:     r.Decimal("PaidAmount"),
			PaymentDate:    r.Date("PaymentDate"),
			Status:         r.String("Status"),
			Memo:           r.String("Memo"),
		}
	})
}

// DecodeCashbook reads cashbook rows.
func DecodeCashbook(raw RawTable, c *Collector) ([]model.CashbookEntry, error) {
	return decodeTable(Cashbook, raw, c, nil, func(r Record) model.CashbookEntry {
		return model.CashbookEntry{
			Row:            r.Row,
			Date:           r.Date("Date"),
			AccountID:      r.Int("AccountID"),
			CounterpartyID: r.String("Counterparty"),
			Description:    r.String("Description"),
			Amount:         r.Decimal("Amount"),
			Direction:      model.Direction(strings.ToLower(r.String("Type"))),
			LinkedEntryID:  r.String("LinkEntryID"),
		}
	})
}

// DecodeAdjustments reads journal_adjustments rows. When a line is invalid
// the other lines of its entry are dropped with it, since what remains
// could not balance.
func DecodeAdjustments(raw RawTable, c *Collector) ([]model.AdjustmentLine, error) {
	lines, err := decodeTable(Adjustments, raw, c, nil, func(r Record) model.AdjustmentLine {
		return model.AdjustmentLine{
			Row:       r.Row,
			EntryID:   r.String("EntryID"),
			Date:      r.Date("Date"),
			AccountID: r.Int("AccountID"),
			Debit:     r.Decimal("Debit"),
			Credit:    r.Decimal("Credit"),
			Memo:      r.String("Memo"),
		}
	})
	if err != nil || len(lines) == 0 {
		return lines, err
	}

	dropped := make(map[string]bool)
	for _, f := range c.Failures() {
		if f.Table != TableAdjustments || f.Row == 0 {
			continue
		}
		if id := entryIDAt(raw, f.Row); id != "" {
			dropped[id] = true
		}
	}

	// Lines of one entry must share a date.
	dates := make(map[string]string)
	for _, l := range lines {
		d := l.Date.Format(DateFormat)
		if prev, ok := dates[l.EntryID]; ok && prev != d {
			if err := c.Add(apperrors.RowFailure{
				Table: TableAdjustments, Row: l.Row, Column: "Date",
				Reason: fmt.Sprintf("entry %s has lines dated %s and %s", l.EntryID, prev, d),
			}); err != nil {
				return nil, err
			}
			dropped[l.EntryID] = true
			continue
		}
		dates[l.EntryID] = d
	}

	out := lines[:0]
	for _, l := range lines {
		if dropped[l.EntryID] {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func entryIDAt(raw RawTable, row int) string {
	pos := -1
	for i, h := range raw.Header {
		if normalizeHeader(h) == "entryid" {
			pos = i
		}
	}
	if pos < 0 || row < 1 || row > len(raw.Rows) || pos >= len(raw.Rows[row-1]) {
		return ""
	}
	return strings.TrimSpace(raw.Rows[row-1][pos])
}

// checkReferences validates links between tables: unique source entry ids,
// cashbook links, counterparties and item accounts.
func (ds *Dataset) checkReferences(c *Collector) error {
	accounts := make(map[int]bool, len(ds.Accounts))
	for _, a := range ds.Accounts {
		accounts[a.ID] = true
	}

	var err error
	if ds.AR, err = checkSources(ds.AR, TableAREntries, "CustomerID", ds.Present[TableCustomers], customerIDs(ds.Customers), c); err != nil {
		return err
	}
	if ds.AP, err = checkSources(ds.AP, TableAPEntries, "VendorID", ds.Present[TableVendors], vendorIDs(ds.Vendors), c); err != nil {
		return err
	}

	known := make(map[string]bool, len(ds.AR)+len(ds.AP))
	for _, e := range ds.AR {
		known[e.EntryID] = true
	}
	for _, e := range ds.AP {
		known[e.EntryID] = true
	}
	cash := ds.Cashbook[:0]
	for _, e := range ds.Cashbook {
		if e.LinkedEntryID != "" && !known[e.LinkedEntryID] {
			if err := c.Add(apperrors.RowFailure{
				Table: TableCashbook, Row: e.Row, Column: "LinkEntryID",
				Reason: fmt.Sprintf("no AR or AP entry %q", e.LinkedEntryID),
			}); err != nil {
				return err
			}
			continue
		}
		cash = append(cash, e)
	}
	ds.Cashbook = cash

	items := ds.Items[:0]
	for _, it := range ds.Items {
		var failures []apperrors.RowFailure
		for _, ref := range []struct {
			col string
			id  int
		}{
			{"COGSAccount", it.COGSAccount},
			{"RevenueAccount", it.RevenueAccount},
			{"InventoryAccount", it.InventoryAccount},
		} {
			if ref.id != 0 && !accounts[ref.id] {
				failures = append(failures, apperrors.RowFailure{
					Table: TableItems, Row: it.Row, Column: ref.col,
					Reason: fmt.Sprintf("account %d not in chart of accounts", ref.id),
				})
			}
		}
		if len(failures) > 0 {
			if err := c.Add(failures...); err != nil {
				return err
			}
			continue
		}
		items = append(items, it)
	}
	ds.Items = items
	return nil
}

func checkSources(entries []model.SourceEntry, table, col string, haveParties bool, parties map[string]bool, c *Collector) ([]model.SourceEntry, error) {
	seen := make(map[string]int, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if prev, ok := seen[e.EntryID]; ok {
			if err := c.Add(apperrors.RowFailure{
				Table: table, Row: e.Row, Column: "EntryID",
				Reason: fmt.Sprintf("duplicate entry id %q (first seen on row %d)", e.EntryID, prev),
			}); err != nil {
				return nil, err
			}
			continue
		}
		seen[e.EntryID] = e.Row
		if haveParties && !parties[e.CounterpartyID] {
			if err := c.Add(apperrors.RowFailure{
				Table: table, Row: e.Row, Column: col,
				Reason: fmt.Sprintf("unknown counterparty %q", e.CounterpartyID),
			}); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func customerIDs(cs []model.Customer) map[string]bool {
	m := make(map[string]bool, len(cs))
	for _, c := range cs {
		m[c.ID] = true
	}
	return m
}

func vendorIDs(vs []model.Vendor) map[string]bool {
	m := make(map[string]bool, len(vs))
	for _, v := range vs {
		m[v.ID] = true
	}
	return m
}

// SortFailures orders failures by table, row and column for reporting.
func SortFailures(fs []apperrors.RowFailure) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Table != fs[j].Table {
			return fs[i].Table < fs[j].Table
		}
		if fs[i].Row != fs[j].Row {
			return fs[i].Row < fs[j].Row
		}
		return fs[i].Column < fs[j].Column
	})
}
