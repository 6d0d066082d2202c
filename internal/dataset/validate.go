package dataset

import (
	"fmt"
	"strings"
)

// Column names used throughout the pipeline.
const (
	ColTransactionID   = "transaction_id"
	ColUserID          = "user_id"
	ColAmount          = "amount"
	ColTransactionType = "transaction_type"
	ColLocation        = "location"
	ColTimestamp       = "timestamp"
	ColDeviceType      = "device_type"
	ColMerchantID      = "merchant_id"
	ColIsInternational = "is_international"
	ColIsFraud         = "is_fraud"
)

// RequiredColumns lists the columns every transaction file must carry.
var RequiredColumns = []string{
	ColTransactionID,
	ColUserID,
	ColAmount,
	ColTransactionType,
	ColLocation,
	ColTimestamp,
	ColDeviceType,
	ColMerchantID,
	ColIsInternational,
	ColIsFraud,
}

// DefaultFeatures are the model inputs used when none are configured.
var DefaultFeatures = []string{ColAmount, ColIsInternational, ColMerchantID}

// MissingColumnsError names every requested column absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: [%s]", strings.Join(e.Columns, ", "))
}

// Validate returns a *MissingColumnsError if any of cols is absent.
func (t *Table) Validate(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
