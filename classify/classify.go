// Package classify labels news articles using retrieved examples as
// few-shot context.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/outputparser"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/prompts"
	"github.com/aqua777/go-ragserve/schema"
	"github.com/aqua777/go-ragserve/token"
)

// Categories maps labels to category names.
var Categories = map[int]string{
	0: "Politics",
	1: "Sport",
	2: "Technology",
	3: "Entertainment",
	4: "Business",
}

// DefaultLabel is the label reported when classification fails.
const DefaultLabel = 0

// inputLimit bounds how much of the article is sent to the model.
const inputLimit = 2000

// CategoryName returns the category name for a label.
func CategoryName(label int) string {
	if name, ok := Categories[label]; ok {
		return name
	}
	return "Unknown"
}

// classificationSchema validates the model's structured output.
const classificationSchema = `{
	"type": "object",
	"properties": {
		"label": {"type": "integer", "minimum": 0, "maximum": 4},
		"category": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning": {"type": "string"}
	},
	"required": ["label", "category", "confidence", "reasoning"]
}`

var classificationSchemaDef = mustSchemaMap(classificationSchema)

func mustSchemaMap(schemaJSON string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &m); err != nil {
		panic(err)
	}
	return m
}

// Generator classifies articles with an LLM. It implements
// pipeline.Generator: errors surface to the orchestrator, which
// substitutes Fallback.
type Generator struct {
	llm          llm.LLMWithStructuredOutput
	counter      token.Counter
	logger       *slog.Logger
	systemPrompt *prompts.PromptTemplate
	userPrompt   *prompts.PromptTemplate
}

var _ pipeline.Generator = (*Generator)(nil)

// NewGenerator creates a classification generator using the default
// prompts.
func NewGenerator(model llm.LLMWithStructuredOutput) *Generator {
	return &Generator{
		llm:          model,
		logger:       slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		systemPrompt: prompts.DefaultClassifierSystemPrompt(),
		userPrompt:   prompts.DefaultClassifierUserPrompt(),
	}
}

// WithTokenCounter sets a token counter used for prompt size logging.
func (g *Generator) WithTokenCounter(counter token.Counter) *Generator {
	g.counter = counter
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

func (g *Generator) Generate(ctx context.Context, input string, examples []schema.Example) (schema.GenerationResult, error) {
	systemMsg := g.systemPrompt.Format(map[string]string{
		"examples_text": prompts.FormatExamples(examples),
	})
	userMsg := g.userPrompt.Format(map[string]string{
		"input": schema.Truncate(input, inputLimit),
	})

	if g.counter != nil {
		promptTokens := g.counter.CountTokens(systemMsg) + g.counter.CountTokens(userMsg)
		g.logger.Debug("Classification prompt built", "prompt_tokens", promptTokens, "examples", len(examples))
	}

	messages := []llm.ChatMessage{
		llm.NewSystemMessage(systemMsg),
		llm.NewUserMessage(userMsg),
	}

	output, err := g.llm.ChatWithFormat(ctx, messages, llm.NewJSONSchemaResponseFormat(classificationSchemaDef))
	if err != nil {
		return nil, fmt.Errorf("classification chat failed: %w", err)
	}

	result, err := parseClassification(output)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Fallback returns the degraded classification used when Generate
// fails: the default label with zero confidence and the error recorded
// in the reasoning.
func (g *Generator) Fallback(err error) schema.GenerationResult {
	return schema.ClassificationResult{
		Label:      DefaultLabel,
		Category:   Categories[DefaultLabel],
		Confidence: 0,
		Reasoning:  "Error during classification: " + err.Error(),
	}
}

func parseClassification(output string) (schema.ClassificationResult, error) {
	jsonStr := outputparser.ExtractJSON(output)
	if jsonStr == "" {
		return schema.ClassificationResult{}, fmt.Errorf("no JSON found in classification output")
	}

	if err := validateClassification(jsonStr); err != nil {
		return schema.ClassificationResult{}, err
	}

	var result schema.ClassificationResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return schema.ClassificationResult{}, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	return result, nil
}

func validateClassification(jsonStr string) error {
	schemaLoader := gojsonschema.NewStringLoader(classificationSchema)
	documentLoader := gojsonschema.NewStringLoader(jsonStr)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("classification schema validation failed: %w", err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}
		return fmt.Errorf("classification output invalid: %s", strings.Join(descs, "; "))
	}
	return nil
}
