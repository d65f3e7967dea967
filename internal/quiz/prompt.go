package quiz

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the instruction sent to the model for one window.
func BuildPrompt(text string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Context: %q\n\n", text)
	fmt.Fprintf(sb, "Based ONLY on the context provided above, generate exactly %d multiple-choice questions (MCQs).\n", QuestionsPerWindow)
	sb.WriteString("Each MCQ must have:\n")
	sb.WriteString("1. A \"question\" statement.\n")
	sb.WriteString("2. An \"options\" array containing exactly 4 distinct string choices.\n")
	sb.WriteString("3. A \"correctAnswer\" field with the letter of the correct option (\"A\", \"B\", \"C\" or \"D\").\n\n")
	sb.WriteString("Format the output as a VALID JSON array of objects, for example:\n")
	sb.WriteString(`[{"question":"What is the main topic discussed?","options":["Topic X","Topic Y","Topic Z","Topic W"],"correctAnswer":"A"}]`)
	sb.WriteString("\nDo not include any text or explanation outside the JSON array.\n")
	return sb.String()
}
