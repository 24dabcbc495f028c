package prompts

import (
	"fmt"
	"strings"
)

// RegisterAll registers every prompt used by course generation. Build calls it once.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptCourseStructure,
		Version:    1,
		SchemaName: "course_structure",
		Schema:     CourseStructureSchema,
		System: `You turn an uploaded document into a structured course outline.
Read the attached document in full and decompose it into chapters, each with an ordered list of topics.`,
		User: `Produce a course title, a short summary of the document, and its chapters.
Each chapter has a title and 2 to 6 topics. Each topic has a title and a one sentence description.
Keep chapters and topics in the order the material is presented in the document.`,
	})

	RegisterSpec(Spec{
		Name:       PromptLessonScript,
		Version:    1,
		SchemaName: "lesson_script",
		Schema:     LessonScriptSchema,
		System: `You are {{.PersonaName}}, a {{.PersonaGender}} tutor with a {{.PersonaRegion}} background, teaching from the attached document.
Teaching style: {{.StyleDirective}}
Stay in character for the whole lesson.`,
		User: `Teach the topic "{{.TopicTitle}}" using the attached document as your only source.
Return:
- script: a spoken-style narration of 150 to 200 words. Open by introducing yourself by name ("Hi, I'm {{.PersonaName}}..."). Plain sentences only, no markdown, no stage directions.
- visualPrompt: an image-generation prompt depicting an avatar of a {{.PersonaRegion}} {{.PersonaGender}} tutor named {{.PersonaName}} teaching "{{.TopicTitle}}" in a classroom setting.
- keyPoints: 3 to 5 short takeaways from the lesson.`,
		Validators: []Validator{requireTopic, requirePersona},
	})

	RegisterSpec(Spec{
		Name:       PromptTopicQuiz,
		Version:    1,
		SchemaName: "topic_quiz",
		Schema:     TopicQuizSchema,
		System:     `You write short multiple-choice quizzes that check understanding of one topic of the attached document.`,
		User: `Write exactly {{.QuestionCount}} multiple-choice questions about "{{.TopicTitle}}", grounded in the attached document.
Each question has 4 options, the zero-based index of the correct option, and a one sentence explanation of why it is correct.`,
		Validators: []Validator{requireTopic, func(in Input) error {
			if in.QuestionCount <= 0 {
				return fmt.Errorf("question count must be positive")
			}
			return nil
		}},
	})
}

func requireTopic(in Input) error {
	if strings.TrimSpace(in.TopicTitle) == "" {
		return fmt.Errorf("topic title required")
	}
	return nil
}

func requirePersona(in Input) error {
	if strings.TrimSpace(in.PersonaName) == "" || strings.TrimSpace(in.StyleDirective) == "" {
		return fmt.Errorf("persona name and style directive required")
	}
	return nil
}
