package registry

import (
	"context"
	"net/http"

	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
)

const certificateRegistry = "certificate-registry"

// CertificateClient asks the animal health authority whether a mobilization certificate is valid.
//
//	GET {base}/certificates/{id}/validation -> {"isValid": bool, "errors": [string]}
//
// An unknown certificate (404) is an invalid certificate, not a failure.
type CertificateClient struct {
	http *resty.Client
}

var _ ports.CertificateValidator = (*CertificateClient)(nil)

func NewCertificateClient(baseURL string, opts ...Option) *CertificateClient {
	return &CertificateClient{http: newClient(baseURL, opts...)}
}

func (c *CertificateClient) Validate(ctx context.Context, certificateID string) (process.CertificateResult, error) {
	if certificateID == "" {
		return process.CertificateResult{}, errs.NewValueIsRequiredError("certificateId")
	}

	var result process.CertificateResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", certificateID).
		SetResult(&result).
		Get("/certificates/{id}/validation")
	if err != nil {
		return process.CertificateResult{}, unexpected(certificateRegistry, resp, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result, nil
	case http.StatusNotFound:
		return process.CertificateResult{IsValid: false, Errors: []string{"certificate " + certificateID + " not found"}}, nil
	default:
		return process.CertificateResult{}, unexpected(certificateRegistry, resp, nil)
	}
}
