package animal

import "slaughterhouse/internal/pkg/enum"

// Species of an admitted animal. Fees and yields are reported per species.
type Species int

const (
	UnknownSpecies Species = iota
	Bovine
	Porcine
)

var speciesNames = enum.Names[Species]{
	Bovine:  "Bovine",
	Porcine: "Porcine",
}

func (s Species) String() string {
	return speciesNames.String(s)
}

func (s Species) Validate() error {
	return speciesNames.Validate("species", s)
}

func (s Species) MarshalText() ([]byte, error) {
	return speciesNames.Marshal("species", s)
}

func (s *Species) UnmarshalText(text []byte) error {
	return speciesNames.Unmarshal("species", text, s)
}
