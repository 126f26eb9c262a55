package summarize

// FlashcardStrategy asks the model for question/answer study cards
type FlashcardStrategy struct{}

// Mode returns the mode identifier
func (s *FlashcardStrategy) Mode() Mode {
	return ModeFlashcards
}

// Label returns the delivery label
func (s *FlashcardStrategy) Label() string {
	return "flashcards"
}

// BuildPrompt produces the completion prompt
func (s *FlashcardStrategy) BuildPrompt(text string) string {
	return "Generate flashcards (in Q&A format) based on the following text:\n\n" + text
}
