package ports

import (
	"context"

	"slaughterhouse/internal/core/domain/model/process"
)

// CertificateValidator checks a zoosanitary mobilization certificate against the issuing registry.
type CertificateValidator interface {
	Validate(ctx context.Context, certificateID string) (process.CertificateResult, error)
}

// PaymentValidator reports whether an introducer is inscribed and free of pending fines.
type PaymentValidator interface {
	CanProceed(ctx context.Context, introducerID string) (process.PaymentResult, error)
}
