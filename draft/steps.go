package draft

type Step int

const (
	StepBasics Step = iota + 1
	StepStructure
	StepContent
	StepPricing
	StepReview
)

const stepCount = int(StepReview)

var stepNames = map[Step]string{
	StepBasics:    "Course Basics",
	StepStructure: "Course Structure",
	StepContent:   "Content Creation",
	StepPricing:   "Pricing & Access",
	StepReview:    "Review & Publish",
}

func (s Step) Valid() bool {
	return s >= StepBasics && s <= StepReview
}

func (s Step) Name() string {
	return stepNames[s]
}

func (d Draft) Next() Draft {
	if d.Step < StepReview {
		d.Step++
	}
	return d
}

func (d Draft) Prev() Draft {
	if d.Step > StepBasics {
		d.Step--
	}
	return d
}

// GoTo jumps to any step; out-of-range steps leave the draft unchanged.
func (d Draft) GoTo(s Step) Draft {
	if s.Valid() {
		d.Step = s
	}
	return d
}

// Progress is the wizard completion percentage for the current step.
func (d Draft) Progress() float64 {
	step := d.Step
	if !step.Valid() {
		step = StepBasics
	}
	return float64(step-1) / float64(stepCount-1) * 100
}
