package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
)

const (
	numFields = 3
	colName   = 0
	colType   = 1
	colSource = 2
)

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_name", "account_type", "source"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct Account) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colSource] = acct.Source
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (Account, error) {
	if len(record) != numFields {
		return Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	typ, err := ParseName(record[colName])
	if err != nil {
		return Account{}, err
	}
	if record[colType] != "" && Type(record[colType]) != typ {
		return Account{}, fmt.Errorf("account %q: type %q does not match root %q", record[colName], record[colType], typ)
	}

	return Account{
		Name:   record[colName],
		Type:   typ,
		Source: record[colSource],
	}, nil
}
