package domain

// Step is a checkout workflow position.
type Step int

const (
	StepReview Step = iota
	StepCustomer
	StepPayment
	StepProcessing
	StepComplete
	StepError
	// StepDelivery is reserved and never entered.
	StepDelivery
)

var stepNames = map[Step]string{
	StepReview:     "review",
	StepCustomer:   "customer",
	StepPayment:    "payment",
	StepProcessing: "processing",
	StepComplete:   "complete",
	StepError:      "error",
	StepDelivery:   "delivery",
}

// StepOrder is the forward order of the workflow. Error and delivery are not part of it.
var StepOrder = []Step{StepReview, StepCustomer, StepPayment, StepProcessing, StepComplete}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Index returns the position of s in StepOrder, or 0 when s is not ordered.
func (s Step) Index() int {
	for i, o := range StepOrder {
		if o == s {
			return i
		}
	}
	return 0
}

func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
