package prompts

func CourseStructureSchema() map[string]any {
	topic := ObjectSchema(map[string]any{
		"title":       StringSchema(),
		"description": StringSchema(),
	})
	chapter := ObjectSchema(map[string]any{
		"title":  StringSchema(),
		"topics": ArraySchema(topic),
	})
	return ObjectSchema(map[string]any{
		"title":    StringSchema(),
		"summary":  StringSchema(),
		"chapters": ArraySchema(chapter),
	})
}

func LessonScriptSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"script":       StringSchema(),
		"visualPrompt": StringSchema(),
		"keyPoints":    StringArraySchema(),
	})
}

func TopicQuizSchema() map[string]any {
	question := ObjectSchema(map[string]any{
		"question":           StringSchema(),
		"options":            StringArraySchema(),
		"correctOptionIndex": IntSchema(),
		"explanation":        StringSchema(),
	})
	return ObjectSchema(map[string]any{
		"questions": ArraySchema(question),
	})
}
