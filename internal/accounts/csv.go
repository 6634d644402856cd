package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/glengine/internal/model"
)

const (
	numFields = 5
	colID     = 0
	colName   = 1
	colType   = 2
	colParent = 3
	colActive = 4
)

// Header is the chart_of_accounts.csv header. Reading the file back goes
// through importer and schema like every other input table.
var Header = []string{"AccountID", "Name", "Type", "ParentID", "IsActive"}

// WriteAccounts writes chart_of_accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(acct.ID)
	row[colName] = acct.Name
	row[colType] = acct.Type.Title()
	if acct.ParentID != 0 {
		row[colParent] = strconv.Itoa(acct.ParentID)
	}
	row[colActive] = strconv.FormatBool(acct.IsActive)
	return row
}
