package core

import (
	"errors"
	"math"
)

// LoanQuote is the result of an EMI (equated monthly installment)
// calculation, rounded to two decimals for display.
type LoanQuote struct {
	EMI           float64
	TotalPayment  float64
	TotalInterest float64
}

var (
	ErrInvalidPrincipal = errors.New("principal must be positive")
	ErrInvalidTerm      = errors.New("loan term must be positive")
	ErrInvalidRate      = errors.New("annual rate must not be negative")
)

// CalculateLoan computes the monthly installment for a loan of the
// given principal over the given term at the given annual percentage
// rate. A zero rate degrades to straight-line repayment.
func CalculateLoan(principal, annualRatePercent, years float64) (LoanQuote, error) {
	if principal <= 0 {
		return LoanQuote{}, ErrInvalidPrincipal
	}
	if years <= 0 {
		return LoanQuote{}, ErrInvalidTerm
	}
	if annualRatePercent < 0 {
		return LoanQuote{}, ErrInvalidRate
	}

	monthlyRate := annualRatePercent / 12 / 100
	nMonths := years * 12

	var emi float64
	if monthlyRate > 0 {
		growth := math.Pow(1+monthlyRate, nMonths)
		emi = principal * monthlyRate * growth / (growth - 1)
	} else {
		emi = principal / nMonths
	}

	totalPayment := emi * nMonths
	return LoanQuote{
		EMI:           round2(emi),
		TotalPayment:  round2(totalPayment),
		TotalInterest: round2(totalPayment - principal),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
