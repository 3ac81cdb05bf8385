package evaluation

import "slaughterhouse/internal/pkg/enum"

// Result is the veterinary decision for one live animal.
type Result int

const (
	UnknownResult Result = iota
	SuitableForSlaughter
	UnfitConfiscation
	UnfitReturn
	Quarantine
)

var resultNames = enum.Names[Result]{
	SuitableForSlaughter: "SuitableForSlaughter",
	UnfitConfiscation:    "UnfitConfiscation",
	UnfitReturn:          "UnfitReturn",
	Quarantine:           "Quarantine",
}

func (r Result) String() string                { return resultNames.String(r) }
func (r Result) Validate() error               { return resultNames.Validate("result", r) }
func (r Result) MarshalText() ([]byte, error)  { return resultNames.Marshal("result", r) }
func (r *Result) UnmarshalText(b []byte) error { return resultNames.Unmarshal("result", b, r) }

func (r Result) IsSuitable() bool {
	return r == SuitableForSlaughter
}

// Overall is the roll-up of every evaluation of a process.
type Overall int

const (
	UnknownOverall Overall = iota
	AllSuitable
	PartialSuitable
	AllUnsuitable
)

var overallNames = enum.Names[Overall]{
	AllSuitable:     "AllSuitable",
	PartialSuitable: "PartialSuitable",
	AllUnsuitable:   "AllUnsuitable",
}

func (o Overall) String() string                { return overallNames.String(o) }
func (o Overall) Validate() error               { return overallNames.Validate("overallResult", o) }
func (o Overall) MarshalText() ([]byte, error)  { return overallNames.Marshal("overallResult", o) }
func (o *Overall) UnmarshalText(b []byte) error { return overallNames.Unmarshal("overallResult", b, o) }

// AdmitsSlaughter reports whether at least one animal may proceed to slaughter.
func (o Overall) AdmitsSlaughter() bool {
	return o == AllSuitable || o == PartialSuitable
}
