package process_test

import (
	"testing"
	"time"

	"slaughterhouse/internal/core/domain/model/animal"
	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const actor = "inspector.gomez"

var t0 = time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func reception(ids ...string) process.ReceptionInput {
	if len(ids) == 0 {
		ids = []string{"EC-001", "EC-002"}
	}
	animals := make([]animal.Record, 0, len(ids))
	for _, id := range ids {
		animals = append(animals, animal.Record{
			ID:               id,
			Species:          animal.Bovine,
			ArrivalWeightKg:  450,
			ArrivalCondition: "good",
		})
	}
	return process.ReceptionInput{
		CertificateID: "CZ-2024-0001",
		IntroducerID:  "INT-77",
		Animals:       animals,
		Method:        "truck",
	}
}

func validCertificate() process.CertificateResult {
	return process.CertificateResult{IsValid: true}
}

func clearedPayment() process.PaymentResult {
	return process.PaymentResult{CanProceed: true}
}

func eval(animalID string, result evaluation.Result) evaluation.Evaluation {
	return evaluation.Evaluation{
		AnimalID: animalID,
		Readings: evaluation.Readings{
			TemperatureC:     38.6,
			HeartRate:        70,
			RespiratoryRate:  24,
			GeneralCondition: "alert",
		},
		Result:    result,
		Inspector: actor,
	}
}

func slaughterRecord(animalID string, carcassKg float64, productIDs ...string) process.SlaughterRecord {
	products := make([]process.ObtainedProduct, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, process.ObtainedProduct{ID: id, Type: "quarter", WeightKg: 60})
	}
	return process.SlaughterRecord{
		AnimalID:        animalID,
		StartedAt:       at(100),
		EndedAt:         at(130),
		Method:          "stunning",
		CarcassWeightKg: carcassKg,
		Products:        products,
	}
}

func productInspection(productID string, c process.Classification) process.ProductInspection {
	return process.ProductInspection{
		ProductID:      productID,
		Organoleptic:   process.Organoleptic{Color: "red", Odor: "normal", Texture: "firm"},
		Classification: c,
		Inspector:      actor,
	}
}

func storage() process.StorageConditions {
	return process.StorageConditions{Chamber: "C-1", TemperatureC: 2, HumidityPct: 85}
}

func regularShipment(productIDs ...string) process.Shipment {
	return process.Shipment{
		Type:        process.Regular,
		ProductIDs:  productIDs,
		Destination: process.Destination{Name: "Market", Address: "Av. 10 de Agosto"},
		Vehicle:     process.Vehicle{Plate: "PBA-1234", Driver: "R. Vera", Refrigerated: true},
	}
}

func newProcess(t *testing.T, ids ...string) *process.Process {
	t.Helper()
	p, err := process.NewProcess(kernel.NewUUID(), reception(ids...), decimal.RequireFromString("0.15"), actor, t0)
	require.NoError(t, err)
	return p
}

// processAt drives a process with animals EC-001 and EC-002, both suitable, to stage s.
// Each animal yields two products: P-<n>-A and P-<n>-B.
func processAt(t *testing.T, s process.Stage) *process.Process {
	t.Helper()
	p := newProcess(t)
	if s == process.Reception {
		return p
	}

	_, err := p.ValidateCertificateAndPayment(validCertificate(), clearedPayment(), actor, at(10))
	require.NoError(t, err)
	if s == process.ExternalInspection {
		return p
	}

	require.NoError(t, p.EvaluateAnimal(eval("EC-001", evaluation.SuitableForSlaughter), actor, at(20)))
	require.NoError(t, p.EvaluateAnimal(eval("EC-002", evaluation.SuitableForSlaughter), actor, at(25)))
	require.NoError(t, p.CompleteExternalInspection(process.Environment{TemperatureC: 18, HumidityPct: 60}, nil,
		process.UnknownStage, actor, at(30)))
	require.NoError(t, p.StartSlaughter("op.ruiz", "dr.vaca", actor, at(90)))
	if s == process.Slaughter {
		return p
	}

	_, err = p.RecordSlaughter(slaughterRecord("EC-001", 250, "P-1-A", "P-1-B"), actor, at(130))
	require.NoError(t, err)
	_, err = p.RecordSlaughter(slaughterRecord("EC-002", 270, "P-2-A", "P-2-B"), actor, at(160))
	require.NoError(t, err)
	require.NoError(t, p.CompleteSlaughter(actor, at(170)))
	if s == process.InternalInspection {
		return p
	}

	for _, id := range []string{"P-1-A", "P-1-B", "P-2-A"} {
		require.NoError(t, p.InspectProduct(productInspection(id, process.SuitableForConsumption), actor, at(200)))
	}
	require.NoError(t, p.InspectProduct(productInspection("P-2-B", process.TotalConfiscation), actor, at(205)))
	require.NoError(t, p.CompleteInternalInspection(storage(), "", actor, at(240)))
	if s == process.Dispatch {
		return p
	}

	require.FailNow(t, "processAt does not build stage "+s.String())
	return nil
}
