package billing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
)

// Invoice numbers are scoped to the Indian financial year (April 1 through
// March 31): a 6-digit FY code followed by a 5-digit zero-padded sequence.
// FY 2025-26 yields code "202526", so its first invoice is "20252600001".
const (
	fyCodeLength        = 6
	sequenceLength      = 5
	invoiceNumberLength = fyCodeLength + sequenceLength

	// MaxSequencePerYear is the largest sequence a single FY can issue.
	MaxSequencePerYear = 99999
)

// FinancialYearStart returns the calendar year in which the financial year
// containing t begins. Months before April belong to the FY started the
// previous year.
func FinancialYearStart(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// FinancialYearCode returns the 6-digit FY code for the financial year
// containing t, e.g. "202526" for any date between 2025-04-01 and 2026-03-31.
func FinancialYearCode(t time.Time) string {
	start := FinancialYearStart(t)
	return fmt.Sprintf("%04d%02d", start, (start+1)%100)
}

// FormatInvoiceNumber builds the invoice number for a FY code and sequence.
func FormatInvoiceNumber(fyCode string, sequence int) (string, error) {
	if err := validateFYCode(fyCode); err != nil {
		return "", err
	}
	if sequence < 1 || sequence > MaxSequencePerYear {
		return "", shared.NewDomainErrorf("INVALID_SEQUENCE",
			"Invoice sequence %d outside [1, %d]", sequence, MaxSequencePerYear)
	}
	return fmt.Sprintf("%s%0*d", fyCode, sequenceLength, sequence), nil
}

// ParseInvoiceNumber is the exact inverse of FormatInvoiceNumber.
func ParseInvoiceNumber(number string) (fyCode string, sequence int, err error) {
	if len(number) != invoiceNumberLength {
		return "", 0, shared.NewDomainErrorf("INVALID_INVOICE_NUMBER",
			"Invoice number %q must be %d digits", number, invoiceNumberLength)
	}
	fyCode = number[:fyCodeLength]
	if err := validateFYCode(fyCode); err != nil {
		return "", 0, err
	}
	seqPart := number[fyCodeLength:]
	if !isDigits(seqPart) {
		return "", 0, shared.NewDomainErrorf("INVALID_INVOICE_NUMBER",
			"Invoice number %q has an invalid sequence part", number)
	}
	sequence, convErr := strconv.Atoi(seqPart)
	if convErr != nil || sequence < 1 || sequence > MaxSequencePerYear {
		return "", 0, shared.NewDomainErrorf("INVALID_INVOICE_NUMBER",
			"Invoice number %q has an invalid sequence part", number)
	}
	return fyCode, sequence, nil
}

// ValidateInvoiceNumber reports whether number is a well-formed invoice number.
func ValidateInvoiceNumber(number string) error {
	_, _, err := ParseInvoiceNumber(number)
	return err
}

func validateFYCode(fyCode string) error {
	if len(fyCode) != fyCodeLength {
		return shared.NewDomainErrorf("INVALID_FY_CODE", "FY code %q must be %d digits", fyCode, fyCodeLength)
	}
	if !isDigits(fyCode) {
		return shared.NewDomainErrorf("INVALID_FY_CODE", "FY code %q is not numeric", fyCode)
	}
	startYear, _ := strconv.Atoi(fyCode[:4])
	endYY, _ := strconv.Atoi(fyCode[4:])
	if (startYear+1)%100 != endYY {
		return shared.NewDomainErrorf("INVALID_FY_CODE",
			"FY code %q end year does not follow start year", fyCode)
	}
	return nil
}

// isDigits reports whether s consists only of ASCII digits. strconv.Atoi
// alone is too lenient here since it accepts a leading sign.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
