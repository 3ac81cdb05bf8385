package process

import (
	"fmt"
	"strings"

	"slaughterhouse/internal/core/domain/model/evaluation"
	"slaughterhouse/internal/pkg/errs"
)

// Operation names, as they appear in timeline entries and precondition errors.
const (
	OpStartReception                = "StartReception"
	OpValidateCertificateAndPayment = "ValidateCertificateAndPayment"
	OpEvaluateAnimal                = "EvaluateAnimal"
	OpCompleteExternalInspection    = "CompleteExternalInspection"
	OpStartSlaughter                = "StartSlaughter"
	OpRecordSlaughter               = "RecordSlaughter"
	OpCompleteSlaughter             = "CompleteSlaughter"
	OpInspectProduct                = "InspectProduct"
	OpCompleteInternalInspection    = "CompleteInternalInspection"
	OpCreateShipment                = "CreateShipment"
	OpUpdateShipmentStatus          = "UpdateShipmentStatus"
	OpCompleteProcess               = "CompleteProcess"
	OpSuspendProcess                = "SuspendProcess"
	OpCancelProcess                 = "CancelProcess"
	OpRecordAnimalCost              = "RecordAnimalCost"
	OpRegisterPayment               = "RegisterPayment"
	OpMarkPaymentOverdue            = "MarkPaymentOverdue"
)

// Verdict is the answer of a stage gate. Gates are pure: they read the process and the
// facts handed to them, never mutate and never perform I/O.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow() Verdict {
	return Verdict{Allowed: true}
}

func deny(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Err converts a denial into a precondition error for operation.
func (v Verdict) Err(operation string) error {
	if v.Allowed {
		return nil
	}
	return errs.NewPreconditionFailedError(operation, v.Reason)
}

// then evaluates next only if v allowed.
func (v Verdict) then(next func() Verdict) Verdict {
	if !v.Allowed {
		return v
	}
	return next()
}

func isLive(p *Process) Verdict {
	if p.stage.IsTerminal() {
		return deny("process is %s and accepts no further changes", p.stage)
	}
	return allow()
}

func isIn(p *Process, stages ...Stage) Verdict {
	return isLive(p).then(func() Verdict {
		for _, s := range stages {
			if p.stage == s {
				return allow()
			}
		}
		names := make([]string, len(stages))
		for i, s := range stages {
			names[i] = s.String()
		}
		return deny("process is in %s, expected %s", p.stage, strings.Join(names, " or "))
	})
}

func CanValidateCertificateAndPayment(p *Process) Verdict {
	return isIn(p, Reception, PaymentVerification)
}

// CanLeavePaymentVerification reports every missing condition at once.
func CanLeavePaymentVerification(cert CertificateResult, pay PaymentResult) Verdict {
	if missing := missingConditions(cert, pay); len(missing) > 0 {
		return deny("%s", strings.Join(missing, ", "))
	}
	return allow()
}

func CanEvaluateAnimal(p *Process) Verdict {
	return isIn(p, ExternalInspection)
}

func CanCompleteExternalInspection(p *Process) Verdict {
	return isIn(p, ExternalInspection).then(func() Verdict {
		if missing := p.evaluations.Missing(p.animals.IDs()); len(missing) > 0 {
			return deny("animals without evaluation: %s", strings.Join(missing, ", "))
		}
		return allow()
	})
}

func CanStartSlaughter(p *Process) Verdict {
	return isIn(p, Slaughter).then(func() Verdict {
		if !p.OverallResult().AdmitsSlaughter() {
			return deny("external inspection result %s admits no animal to slaughter", p.OverallResult())
		}
		if p.slaughter != nil && p.slaughter.IsStarted() {
			return deny("slaughter already started at %s", p.slaughter.StartedAt.Format("2006-01-02 15:04"))
		}
		return allow()
	})
}

func slaughterRunning(p *Process) Verdict {
	return isIn(p, Slaughter).then(func() Verdict {
		if p.slaughter == nil || !p.slaughter.IsStarted() {
			return deny("slaughter has not been started")
		}
		return allow()
	})
}

// CanRecordSlaughter admits only animals evaluated SuitableForSlaughter, once each.
func CanRecordSlaughter(p *Process, animalID string) Verdict {
	return slaughterRunning(p).then(func() Verdict {
		e, ok := p.evaluations.Get(animalID)
		if !ok {
			return deny("animal %s has no evaluation", animalID)
		}
		if e.Result != evaluation.SuitableForSlaughter {
			return deny("animal %s was evaluated %s", animalID, e.Result)
		}
		if _, ok := p.slaughter.record(animalID); ok {
			return deny("animal %s already has a slaughter record", animalID)
		}
		return allow()
	})
}

func CanCompleteSlaughter(p *Process) Verdict {
	return slaughterRunning(p).then(func() Verdict {
		var missing []string
		for _, id := range p.evaluations.SuitableIDs() {
			if _, ok := p.slaughter.record(id); !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return deny("suitable animals without slaughter record: %s", strings.Join(missing, ", "))
		}
		return allow()
	})
}

func CanInspectProduct(p *Process) Verdict {
	return isIn(p, InternalInspection)
}

func CanCompleteInternalInspection(p *Process) Verdict {
	return isIn(p, InternalInspection).then(func() Verdict {
		var missing []string
		for _, prod := range p.Products() {
			if _, _, ok := p.internal.inspection(prod.ID); !ok {
				missing = append(missing, prod.ID)
			}
		}
		if len(missing) > 0 {
			return deny("products without inspection: %s", strings.Join(missing, ", "))
		}
		return allow()
	})
}

func CanManageShipments(p *Process) Verdict {
	return isIn(p, Dispatch)
}

func CanCompleteProcess(p *Process) Verdict {
	return isIn(p, Dispatch).then(func() Verdict {
		pending := p.dispatch.Pending()
		if len(pending) > 0 {
			ids := make([]string, len(pending))
			for i, s := range pending {
				ids[i] = fmt.Sprintf("%s (%s)", s.ID, s.Status)
			}
			return deny("shipments still pending: %s", strings.Join(ids, ", "))
		}
		return allow()
	})
}

// CanInterrupt guards SuspendProcess and CancelProcess.
func CanInterrupt(p *Process) Verdict {
	return isLive(p)
}

// CanRecordFinance guards cost lines and payments; they are accepted in any live stage.
func CanRecordFinance(p *Process) Verdict {
	return isLive(p)
}
