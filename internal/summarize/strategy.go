package summarize

import (
	"errors"
	"fmt"
	"strings"
)

// Mode defines the kind of output generated from a document
type Mode string

const (
	ModeSummary    Mode = "SUMMARY"
	ModeFlashcards Mode = "FLASHCARDS"
)

// Strategy is the interface that all generation modes must implement
type Strategy interface {
	// BuildPrompt produces the completion prompt for the extracted text
	BuildPrompt(text string) string

	// Mode returns the mode identifier for this strategy
	Mode() Mode

	// Label returns the word used when delivering the result
	// ("Here is the summary for your PDF")
	Label() string
}

// Factory creates generation strategies based on the requested mode
type Factory struct{}

// NewStrategyFactory creates a new factory instance
func NewStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the mode
func (f *Factory) Create(mode Mode) (Strategy, error) {
	switch mode {
	case ModeSummary:
		return &SummaryStrategy{}, nil
	case ModeFlashcards:
		return &FlashcardStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}

// CreateFromString creates a strategy from a user-supplied answer
// ("summary" / "flashcards", case-insensitive)
func (f *Factory) CreateFromString(mode string) (Strategy, error) {
	return f.Create(Mode(strings.ToUpper(strings.TrimSpace(mode))))
}

var ErrEmptyDocument = errors.New("the document contains no extractable text")
