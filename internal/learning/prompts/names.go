package prompts

type PromptName string

const (
	PromptCourseStructure PromptName = "course_structure"
	PromptLessonScript    PromptName = "lesson_script"
	PromptTopicQuiz       PromptName = "topic_quiz"
)
