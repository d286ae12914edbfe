package form

// Step is a position in the four-step wizard.
type Step int

const (
	StepType Step = iota
	StepContent
	StepIdentification
	StepReview
)

// StepCount is the number of wizard steps.
const StepCount = 4

var stepTitles = [StepCount]string{
	"Tipo de manifestação",
	"Conteúdo",
	"Identificação",
	"Revisão",
}

var stepKeys = [StepCount]string{"tipo", "conteudo", "identificacao", "revisao"}

// Title is the label shown in the progress indicator.
func (s Step) Title() string {
	if !s.Valid() {
		return ""
	}
	return stepTitles[s]
}

func (s Step) String() string {
	if !s.Valid() {
		return "desconhecida"
	}
	return stepKeys[s]
}

func (s Step) Valid() bool {
	return s >= StepType && s <= StepReview
}
