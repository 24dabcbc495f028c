package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Topic being taught or quizzed
	TopicTitle string
	// Tutor persona
	PersonaName    string
	PersonaRegion  string
	PersonaGender  string
	StyleDirective string
	// Quiz
	QuestionCount int
}
