// Package batch parses recipient,amount tables into validated batches.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github/chapool/go-airdrop/internal/airdrop/address"
	"github/chapool/go-airdrop/internal/airdrop/amount"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const minFieldsPerRow = 2

// Validator turns raw tabular input into a Batch.
type Validator struct {
	// MaxRows rejects batches with more rows. Zero means unbounded.
	MaxRows int
}

// NewValidator creates a validator enforcing the given row ceiling (0 = unbounded).
func NewValidator(maxRows int) *Validator {
	return &Validator{MaxRows: maxRows}
}

// Validate reads every row of r. Rows are recipient,amount with no header; extra
// fields are ignored and empty lines skipped. Validation is all-or-nothing: if any
// row fails, no batch is returned and the error is a failure.RowErrors listing every
// offending row in input order.
func (v *Validator) Validate(r io.Reader) (*Batch, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, failure.New(failure.MalformedRow, "input contains no rows")
	}

	if v.MaxRows > 0 && len(records) > v.MaxRows {
		return nil, failure.RowErrors{failure.AtRow(failure.MalformedRow, v.MaxRows+1,
			fmt.Sprintf("batch exceeds maximum of %d rows", v.MaxRows))}
	}

	var (
		entries   = make([]Entry, 0, len(records))
		total     = decimal.Zero
		rowErrors failure.RowErrors
	)

	for i, record := range records {
		row := i + 1

		entry, value, rowErr := parseRow(row, record)
		if rowErr != nil {
			rowErrors = append(rowErrors, rowErr)
			continue
		}

		entries = append(entries, entry)
		total = total.Add(value)
	}

	if len(rowErrors) > 0 {
		return nil, rowErrors
	}

	return &Batch{Entries: entries, Total: total}, nil
}

// ValidateString is a convenience wrapper for pasted text.
func (v *Validator) ValidateString(s string) (*Batch, error) {
	return v.Validate(strings.NewReader(s))
}

// Normalize converts every entry with the given precision. A failure on any entry
// leaves the batch unnormalized and reports that entry's row.
func Normalize(b *Batch, precision int) error {
	if b.Len() == 0 {
		return failure.New(failure.MalformedRow, "batch is empty")
	}

	normalized := make([]*big.Int, len(b.Entries))
	for i, e := range b.Entries {
		units, err := amount.Normalize(e.AmountText, precision)
		if err != nil {
			if f, ok := failure.As(err); ok {
				return failure.AtRow(f.Kind, e.Row, f.Detail)
			}
			return errors.Wrapf(err, "failed to normalize row %d", e.Row)
		}
		normalized[i] = units
	}

	b.Normalized = normalized
	b.Precision = precision

	return nil
}

func parseRow(row int, record []string) (Entry, decimal.Decimal, *failure.Error) {
	if len(record) < minFieldsPerRow {
		return Entry{}, decimal.Zero, failure.AtRow(failure.MalformedRow, row,
			"expected recipient,amount")
	}

	recipientText := strings.TrimSpace(record[0])
	recipient, ok := address.Parse(recipientText)
	if !ok {
		return Entry{}, decimal.Zero, failure.AtRow(failure.InvalidAddress, row, recipientText)
	}

	amountText := strings.TrimSpace(record[1])
	value, err := amount.Parse(amountText)
	if err != nil {
		return Entry{}, decimal.Zero, failure.AtRow(failure.InvalidAmount, row, amountText)
	}

	return Entry{Row: row, Recipient: recipient, AmountText: amountText}, value, nil
}

// readRecords strips a leading byte order mark, as written by spreadsheet
// exports, and decodes UTF-16 input it announces.
func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, failure.RowErrors{failure.AtRow(failure.MalformedRow, len(records)+1, parseErr.Err.Error())}
			}
			return nil, errors.Wrap(err, "failed to read batch input")
		}
		records = append(records, record)
	}

	return records, nil
}
