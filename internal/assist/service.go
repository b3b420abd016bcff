package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// GeneratorPort is the model call the service depends on.
type GeneratorPort interface {
	Generate(ctx context.Context, prompt string, jsonOutput bool) (string, error)
}

// Service builds prompts, calls the model and validates what comes back.
type Service struct {
	generator GeneratorPort
	logger    *slog.Logger
}

// NewService wires the assistant.
func NewService(generator GeneratorPort, logger *slog.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// DraftEmailInput describes the email to draft.
type DraftEmailInput struct {
	Recipient string
	Subject   string
	Points    []string
}

// DraftEmail produces a formal Indonesian business email covering the given
// points.
func (s *Service) DraftEmail(ctx context.Context, input DraftEmailInput) (string, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return "", fmt.Errorf("subjek email tidak boleh kosong: %w", shared.ErrValidation)
	}
	var b strings.Builder
	b.WriteString("Tuliskan draf email bisnis formal dalam bahasa Indonesia.\n")
	if input.Recipient != "" {
		fmt.Fprintf(&b, "Penerima: %s\n", input.Recipient)
	}
	fmt.Fprintf(&b, "Perihal: %s\n", input.Subject)
	if len(input.Points) > 0 {
		b.WriteString("Poin yang harus tercakup:\n")
		for _, point := range input.Points {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}
	b.WriteString("Jawab hanya dengan isi email, tanpa penjelasan tambahan.")

	return s.generator.Generate(ctx, b.String(), false)
}

// BOMSuggestion is one suggested bill-of-materials line.
type BOMSuggestion struct {
	PartName               string  `json:"partName"`
	Quantity               float64 `json:"quantity"`
	SupplierRecommendation string  `json:"supplierRecommendation"`
}

// SuggestBOM asks the model for a component list for the described assembly.
func (s *Service) SuggestBOM(ctx context.Context, description string) ([]BOMSuggestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("deskripsi produk tidak boleh kosong: %w", shared.ErrValidation)
	}
	prompt := fmt.Sprintf(`Anda adalah insinyur kelistrikan industri. Susun bill of materials untuk produk berikut: %s.
Jawab dalam JSON berupa array objek dengan field "partName" (string), "quantity" (angka) dan "supplierRecommendation" (string).`, description)

	raw, err := s.generator.Generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var suggestions []BOMSuggestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &suggestions); err != nil {
		s.logger.Warn("bom suggestion unparseable", slog.Any("error", err))
		return nil, fmt.Errorf("assist: jawaban model bukan JSON yang valid: %w", shared.ErrValidation)
	}
	valid := suggestions[:0]
	for _, sug := range suggestions {
		if strings.TrimSpace(sug.PartName) == "" || sug.Quantity <= 0 {
			continue
		}
		valid = append(valid, sug)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyResponse
	}
	return valid, nil
}

// ComponentRecommendation names a component with a short reason.
type ComponentRecommendation struct {
	Component   string `json:"component"`
	Description string `json:"description"`
}

// SystemRecommendation groups component recommendations by system stage.
type SystemRecommendation struct {
	Input   []ComponentRecommendation `json:"input"`
	Process []ComponentRecommendation `json:"process"`
	Output  []ComponentRecommendation `json:"output"`
}

// RecommendComponents asks the model for an input/process/output component
// breakdown of the described control system.
func (s *Service) RecommendComponents(ctx context.Context, requirement string) (*SystemRecommendation, error) {
	if strings.TrimSpace(requirement) == "" {
		return nil, fmt.Errorf("kebutuhan sistem tidak boleh kosong: %w", shared.ErrValidation)
	}
	prompt := fmt.Sprintf(`Anda adalah insinyur sistem kontrol. Rancang komponen untuk kebutuhan berikut: %s.
Jawab dalam JSON berupa objek dengan field "input", "process" dan "output", masing-masing array objek dengan field "component" dan "description".`, requirement)

	raw, err := s.generator.Generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var rec SystemRecommendation
	if err := json.Unmarshal([]byte(stripFences(raw)), &rec); err != nil {
		s.logger.Warn("component recommendation unparseable", slog.Any("error", err))
		return nil, fmt.Errorf("assist: jawaban model bukan JSON yang valid: %w", shared.ErrValidation)
	}
	if len(rec.Input) == 0 && len(rec.Process) == 0 && len(rec.Output) == 0 {
		return nil, ErrEmptyResponse
	}
	return &rec, nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
