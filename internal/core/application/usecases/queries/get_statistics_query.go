package queries

import (
	"errors"

	"slaughterhouse/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetStatisticsQueryIsNotConstructed = errors.New("GetStatisticsQuery must be created via NewGetStatisticsQuery constructor")

// GetStatisticsQuery aggregates every stored process into plant-level figures.
type GetStatisticsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetStatisticsQuery() GetStatisticsQuery {
	return GetStatisticsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetStatisticsQuery) Validate() error {
	return q.guard.Validate(ErrGetStatisticsQueryIsNotConstructed)
}

// Statistics are recomputed from the stored processes on every call.
//
// AverageYield is the mean over every slaughter record; ApprovalPercentage is suitable over
// inspected products across all processes.
type Statistics struct {
	Processes            int             `json:"processes"`
	ByStage              map[string]int  `json:"byStage"`
	ByPaymentStatus      map[string]int  `json:"byPaymentStatus"`
	AnimalsReceived      int             `json:"animalsReceived"`
	AnimalsBySpecies     map[string]int  `json:"animalsBySpecies"`
	LiveWeightReceivedKg float64         `json:"liveWeightReceivedKg"`
	Evaluations          map[string]int  `json:"evaluations"`
	AnimalsSlaughtered   int             `json:"animalsSlaughtered"`
	AverageYield         float64         `json:"averageYield"`
	ProductsInspected    int             `json:"productsInspected"`
	ApprovalPercentage   float64         `json:"approvalPercentage"`
	ConfiscatedKg        float64         `json:"confiscatedKg"`
	Invoiced             decimal.Decimal `json:"invoiced"`
	Outstanding          decimal.Decimal `json:"outstanding"`
}
