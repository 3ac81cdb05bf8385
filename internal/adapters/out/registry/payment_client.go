package registry

import (
	"context"
	"net/http"

	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
)

const paymentRegistry = "payment-registry"

// PaymentClient asks the collections service for an introducer's standing.
//
//	GET {base}/introducers/{id}/standing -> PaymentResult as JSON
//
// An unknown introducer (404) cannot proceed because its inscription is pending.
type PaymentClient struct {
	http *resty.Client
}

var _ ports.PaymentValidator = (*PaymentClient)(nil)

func NewPaymentClient(baseURL string, opts ...Option) *PaymentClient {
	return &PaymentClient{http: newClient(baseURL, opts...)}
}

func (c *PaymentClient) CanProceed(ctx context.Context, introducerID string) (process.PaymentResult, error) {
	if introducerID == "" {
		return process.PaymentResult{}, errs.NewValueIsRequiredError("introducerId")
	}

	var result process.PaymentResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", introducerID).
		SetResult(&result).
		Get("/introducers/{id}/standing")
	if err != nil {
		return process.PaymentResult{}, unexpected(paymentRegistry, resp, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result, nil
	case http.StatusNotFound:
		return process.PaymentResult{
			CanProceed:         false,
			InscriptionPending: true,
			Reason:             "introducer " + introducerID + " is not inscribed",
		}, nil
	default:
		return process.PaymentResult{}, unexpected(paymentRegistry, resp, nil)
	}
}
