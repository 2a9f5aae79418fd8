package schema

// Result kinds reported by GenerationResult implementations.
const (
	ResultKindClassification = "classification"
	ResultKindChat           = "chat"
)

// GenerationResult is the structured output of the generation stage. The set
// of implementations is closed: one per task variant.
type GenerationResult interface {
	// Kind reports which task variant produced the result.
	Kind() string
}

// ClassificationResult is the classification variant of GenerationResult.
type ClassificationResult struct {
	// Label is the predicted category identifier.
	Label int `json:"label"`
	// Category is the display name for Label.
	Category string `json:"category"`
	// Confidence is the model's self-reported confidence in [0,1]. Fallback
	// results always carry 0.0.
	Confidence float64 `json:"confidence"`
	// Reasoning is free text explaining the prediction. Fallback results
	// carry a diagnostic string here.
	Reasoning string `json:"reasoning"`
}

// Kind reports the classification variant.
func (ClassificationResult) Kind() string { return ResultKindClassification }

// ChatResult is the chat variant of GenerationResult.
type ChatResult struct {
	// Response is the assistant's reply text.
	Response string `json:"response"`
}

// Kind reports the chat variant.
func (ChatResult) Kind() string { return ResultKindChat }

var (
	_ GenerationResult = ClassificationResult{}
	_ GenerationResult = ChatResult{}
)
