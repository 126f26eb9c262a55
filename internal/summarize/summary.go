package summarize

// SummaryStrategy asks the model for a plain prose summary
type SummaryStrategy struct{}

// Mode returns the mode identifier
func (s *SummaryStrategy) Mode() Mode {
	return ModeSummary
}

// Label returns the delivery label
func (s *SummaryStrategy) Label() string {
	return "summary"
}

// BuildPrompt produces the completion prompt
func (s *SummaryStrategy) BuildPrompt(text string) string {
	return "Please summarize the following text:\n\n" + text
}
