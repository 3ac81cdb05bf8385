package process

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CertificateResult is the already-resolved answer of the zoosanitary certificate validator.
type CertificateResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// PaymentResult is the already-resolved standing of the introducer.
type PaymentResult struct {
	CanProceed         bool            `json:"canProceed"`
	InscriptionPending bool            `json:"inscriptionPending"`
	FinesPending       bool            `json:"finesPending"`
	PendingAmount      decimal.Decimal `json:"pendingAmount"`
	Reason             string          `json:"reason,omitempty"`
}

// missing lists every condition that keeps a process in PaymentVerification.
func missingConditions(cert CertificateResult, pay PaymentResult) []string {
	var missing []string
	if !cert.IsValid {
		msg := "certificate invalid"
		if len(cert.Errors) > 0 {
			msg += " (" + strings.Join(cert.Errors, "; ") + ")"
		}
		missing = append(missing, msg)
	}
	if pay.InscriptionPending {
		missing = append(missing, "inscription pending")
	}
	if pay.FinesPending {
		missing = append(missing, fmt.Sprintf("fines pending (%s)", pay.PendingAmount.StringFixed(2)))
	}
	if !pay.CanProceed && !pay.InscriptionPending && !pay.FinesPending {
		msg := "payment cannot proceed"
		if pay.Reason != "" {
			msg += ": " + pay.Reason
		}
		missing = append(missing, msg)
	}
	return missing
}
