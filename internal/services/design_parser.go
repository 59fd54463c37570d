package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	domain "github.com/cre-mailflow/api/internal/domain"
)

var (
	// ErrDesignResponseEmpty indicates the generator returned nothing usable.
	ErrDesignResponseEmpty = errors.New("designs: empty response")
	// ErrDesignResponseMalformed indicates no JSON array could be recovered from the response.
	ErrDesignResponseMalformed = errors.New("designs: malformed response")
	// ErrDesignCount indicates the recovered array does not hold exactly three concepts.
	ErrDesignCount = errors.New("designs: unexpected design count")
)

var (
	jsonFencePattern = regexp.MustCompile("(?i)```json\\s*")
	fencePattern     = regexp.MustCompile("```\\s*")
)

// StripCodeFences removes Markdown fence markers anywhere in the text and trims the result.
func StripCodeFences(raw string) string {
	cleaned := jsonFencePattern.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ExtractFirstJSONArray returns the first bracket-balanced array in text, starting at the first '['.
// Brackets inside string literals are ignored.
func ExtractFirstJSONArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseDesigns recovers the design array from a model response and decodes it.
// It checks the element count but not the per-design shape; see ValidateDesigns.
func ParseDesigns(text string) ([]MailerDesign, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return nil, ErrDesignResponseEmpty
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
		slice, ok := ExtractFirstJSONArray(cleaned)
		if !ok {
			return nil, fmt.Errorf("%w: no balanced array found", ErrDesignResponseMalformed)
		}
		elements = nil
		if err := json.Unmarshal([]byte(slice), &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDesignResponseMalformed, err)
		}
	}

	if len(elements) != domain.DesignBatchSize {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDesignCount, domain.DesignBatchSize, len(elements))
	}

	designs := make([]MailerDesign, 0, len(elements))
	for i, element := range elements {
		var design MailerDesign
		if err := json.Unmarshal(element, &design); err != nil {
			return nil, fmt.Errorf("%w: design %d: %v", domain.ErrInvalidDesign, i, err)
		}
		designs = append(designs, design)
	}
	return designs, nil
}

// ValidateDesigns requires exactly three designs with distinct ids that each pass the printable
// shape check.
func ValidateDesigns(designs []MailerDesign) error {
	if len(designs) != domain.DesignBatchSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrDesignCount, domain.DesignBatchSize, len(designs))
	}
	seen := make(map[string]int, len(designs))
	for i, design := range designs {
		if err := design.Validate(); err != nil {
			return fmt.Errorf("design %d: %w", i, err)
		}
		id := strings.TrimSpace(design.ID)
		if first, ok := seen[id]; ok {
			return fmt.Errorf("design %d: %w: id %q already used by design %d", i, domain.ErrInvalidDesign, id, first)
		}
		seen[id] = i
	}
	return nil
}
