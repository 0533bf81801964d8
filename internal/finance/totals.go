package finance

import (
	"sort"

	"byggmart/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CurrencyPlaces is the minor-unit precision all monetary amounts are
// rounded to.
const CurrencyPlaces = 2

// Round rounds a monetary amount to the currency precision, half away from
// zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// LineNet returns the rounded net amount of one line:
// quantity × unit_price × (1 − discount/100).
func LineNet(line *models.InvoiceBasisLine) decimal.Decimal {
	gross := line.Quantity.Mul(line.UnitPrice)
	if !line.Discount.IsZero() {
		gross = gross.Mul(decimal.New(1, 0).Sub(line.Discount.Div(hundred)))
	}
	return Round(gross)
}

// LineVAT returns the rounded VAT amount of one line, computed on the
// rounded net.
func LineVAT(line *models.InvoiceBasisLine) decimal.Decimal {
	if line.VATRate.IsZero() {
		return decimal.Zero.Round(CurrencyPlaces)
	}
	return Round(LineNet(line).Mul(line.VATRate).Div(hundred))
}

// Calculate derives the totals for a line set and currency. Per-line amounts
// are rounded first and the rounded amounts are summed, so a recomputation
// over the same lines is always byte-identical and no drift accumulates
// across lines. VAT is aggregated per distinct rate as well as in total;
// buckets are ordered by ascending rate.
func Calculate(lines []models.InvoiceBasisLine, currency string) *models.Totals {
	totals := &models.Totals{
		Currency: currency,
		Net:      decimal.Zero.Round(CurrencyPlaces),
		VAT:      decimal.Zero.Round(CurrencyPlaces),
	}

	byRate := make(map[string]*models.VATBucket)
	for i := range lines {
		net := LineNet(&lines[i])
		vat := LineVAT(&lines[i])
		totals.Net = totals.Net.Add(net)
		totals.VAT = totals.VAT.Add(vat)

		key := lines[i].VATRate.String()
		bucket, ok := byRate[key]
		if !ok {
			bucket = &models.VATBucket{
				Rate: lines[i].VATRate,
				Net:  decimal.Zero.Round(CurrencyPlaces),
				VAT:  decimal.Zero.Round(CurrencyPlaces),
			}
			byRate[key] = bucket
		}
		bucket.Net = bucket.Net.Add(net)
		bucket.VAT = bucket.VAT.Add(vat)
	}

	totals.Gross = totals.Net.Add(totals.VAT)

	for _, bucket := range byRate {
		totals.VATBuckets = append(totals.VATBuckets, *bucket)
	}
	sort.Slice(totals.VATBuckets, func(i, j int) bool {
		return totals.VATBuckets[i].Rate.LessThan(totals.VATBuckets[j].Rate)
	})

	return totals
}
