package models

// Insight is an extracted, tagged fact derived from context text or a
// dialogue transcript. EntityRecognition carries the entity tags the
// environment store indexes by; insights without tags are never stored.
type Insight struct {
	Topic                   string   `json:"topic" yaml:"topic"`
	EntityRecognition       []string `json:"entity_recognition" yaml:"entity_recognition"`
	ExtractDetails          string   `json:"extract_details" yaml:"extract_details"`
	ContextualUnderstanding string   `json:"contextual_understanding" yaml:"contextual_understanding"`
}

// HasTags reports whether the insight carries entity tags and is therefore
// storable in the environment.
func (i Insight) HasTags() bool {
	return len(i.EntityRecognition) > 0
}
