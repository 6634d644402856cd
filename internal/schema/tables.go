package schema

// Input table names, matching the CSV file names without extension.
const (
	TableAccounts    = "chart_of_accounts"
	TableCustomers   = "customers"
	TableVendors     = "vendors"
	TableItems       = "items"
	TableAREntries   = "ar_entries"
	TableAPEntries   = "ap_entries"
	TableCashbook    = "cashbook"
	TableAdjustments = "journal_adjustments"
)

// moneyPlaces is the precision of every money column. Journal amounts are
// kept to the cent.
const moneyPlaces = 2

// ChartOfAccounts is chart_of_accounts.csv.
var ChartOfAccounts = Table{
	Name: TableAccounts,
	Columns: []Column{
		{Name: "AccountID", Kind: Int, Required: true, NonNegative: true},
		{Name: "Name", Kind: String, Required: true},
		{Name: "Type", Kind: String, Required: true},
		{Name: "ParentID", Kind: Int, NonNegative: true},
		{Name: "IsActive", Kind: Bool, Required: true},
	},
}

// Customers is customers.csv.
var Customers = Table{
	Name: TableCustomers,
	Columns: []Column{
		{Name: "CustomerID", Kind: String, Required: true},
		{Name: "Name", Kind: String},
		{Name: "Terms", Kind: String, Optional: true},
		{Name: "CreditLimit", Kind: Decimal, Optional: true, NonNegative: true, MaxPlaces: moneyPlaces},
	},
}

// Vendors is vendors.csv.
var Vendors = Table{
	Name: TableVendors,
	Columns: []Column{
		{Name: "VendorID", Kind: String, Required: true},
		{Name: "Name", Kind: String},
		{Name: "Terms", Kind: String, Optional: true},
		{Name: "Contact", Kind: String, Optional: true},
	},
}

// Items is items.csv.
var Items = Table{
	Name: TableItems,
	Columns: []Column{
		{Name: "ItemID", Kind: String, Required: true},
		{Name: "Name", Kind: String},
		{Name: "SKU", Kind: String, Optional: true},
		{Name: "Type", Kind: String, Optional: true},
		{Name: "UnitPrice", Kind: Decimal, Optional: true, NonNegative: true},
		{Name: "COGSAccount", Kind: Int, NonNegative: true},
		{Name: "RevenueAccount", Kind: Int, NonNegative: true},
		{Name: "InventoryAccount", Kind: Int, NonNegative: true},
	},
}

func sourceEntryTable(name, counterparty string) Table {
	return Table{
		Name: name,
		Columns: []Column{
			{Name: "EntryID", Kind: String, Required: true},
			{Name: counterparty, Kind: String, Required: true},
			{Name: "InvoiceNo", Kind: String},
			{Name: "InvoiceDate", Kind: Date, Required: true},
			{Name: "DueDate", Kind: Date, Required: true},
			{Name: "AccountID", Kind: Int, NonNegative: true},
			{Name: "Amount", Kind: Decimal, Required: true, NonNegative: true, MaxPlaces: moneyPlaces},
			{Name: "Tax", Kind: Decimal, NonNegative: true, MaxPlaces: moneyPlaces},
			{Name: "PaidAmount", Kind: Decimal, NonNegative: true, MaxPlaces: moneyPlaces},
			{Name: "PaymentDate", Kind: Date},
			{Name: "Status", Kind: String},
			{Name: "Memo", Kind: String, Optional: true},
		},
	}
}

// AREntries is ar_entries.csv.
var AREntries = sourceEntryTable(TableAREntries, "CustomerID")

// APEntries is ap_entries.csv.
var APEntries = sourceEntryTable(TableAPEntries, "VendorID")

// Cashbook is cashbook.csv.
var Cashbook = Table{
	Name: TableCashbook,
	Columns: []Column{
		{Name: "Date", Kind: Date, Required: true},
		{Name: "AccountID", Kind: Int, Required: true, NonNegative: true},
		{Name: "Counterparty", Kind: String},
		{Name: "Description", Kind: String},
		{Name: "Amount", Kind: Decimal, Required: true, NonNegative: true, MaxPlaces: moneyPlaces},
		{Name: "Type", Kind: String, Required: true},
		{Name: "LinkEntryID", Kind: String, Optional: true},
	},
}

// Adjustments is journal_adjustments.csv: manual adjusting journal lines.
var Adjustments = Table{
	Name: TableAdjustments,
	Columns: []Column{
		{Name: "EntryID", Kind: String, Required: true},
		{Name: "Date", Kind: Date, Required: true},
		{Name: "AccountID", Kind: Int, Required: true, NonNegative: true},
		{Name: "Debit", Kind: Decimal, NonNegative: true, MaxPlaces: moneyPlaces},
		{Name: "Credit", Kind: Decimal, NonNegative: true, MaxPlaces: moneyPlaces},
		{Name: "Memo", Kind: String, Optional: true},
	},
}
