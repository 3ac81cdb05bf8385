package finance

import "slaughterhouse/internal/pkg/enum"

type PaymentStatus int

const (
	UnknownPaymentStatus PaymentStatus = iota
	Pending
	Partial
	Paid
	Overdue
)

var paymentStatusNames = enum.Names[PaymentStatus]{
	Pending: "Pending",
	Partial: "Partial",
	Paid:    "Paid",
	Overdue: "Overdue",
}

func (s PaymentStatus) String() string  { return paymentStatusNames.String(s) }
func (s PaymentStatus) Validate() error { return paymentStatusNames.Validate("paymentStatus", s) }
func (s PaymentStatus) MarshalText() ([]byte, error) {
	return paymentStatusNames.Marshal("paymentStatus", s)
}
func (s *PaymentStatus) UnmarshalText(b []byte) error {
	return paymentStatusNames.Unmarshal("paymentStatus", b, s)
}

// IsOutstanding reports whether money is still owed under this status.
func (s PaymentStatus) IsOutstanding() bool {
	return s == Pending || s == Partial || s == Overdue
}
