package pipeline

import (
	"fmt"
	"strings"
)

const answerPromptTemplate = `Based on the following context, please answer the question.

Context:
%s

Question: %s

Answer:`

// BuildPrompt assembles the generation prompt from the retrieved passages
// in ranked order and the original question.
func BuildPrompt(question string, passages []string) string {
	if len(passages) == 0 {
		return question
	}
	return fmt.Sprintf(answerPromptTemplate, strings.Join(passages, "\n\n"), question)
}
