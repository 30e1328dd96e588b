package gemini

import "text/template"

// promptData carries the fields available to the prompt templates.
type promptData struct {
	Syllabus string
}

const cardsPromptText = `You are an expert tutor creating spaced-repetition flashcards.

Given the syllabus below, produce a set of flashcards that covers its key
concepts. Each card must test exactly one fact or idea. Prefer precise,
unambiguous questions with short answers.

Respond with ONLY a JSON object of the form:
{"cards": [{"question": "...", "answer": "...", "topic": "...", "difficulty": "easy|medium|hard", "tags": ["..."]}]}

Syllabus:
{{.Syllabus}}
`

const studyPlanPromptText = `You are an expert tutor designing a study plan.

Given the syllabus below, produce a week-by-week study plan in markdown.
Order topics from foundational to advanced, and end each week with a short
list of self-check questions.

Syllabus:
{{.Syllabus}}
`

var (
	cardsPrompt     = template.Must(template.New("cards").Parse(cardsPromptText))
	studyPlanPrompt = template.Must(template.New("study_plan").Parse(studyPlanPromptText))
)
