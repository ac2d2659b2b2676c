package enhance

// Task names accepted by Enhance.
const (
	TaskCleanup     = "cleanup"
	TaskSummarize   = "summarize"
	TaskActionItems = "action_items"
	TaskFormat      = "format"
)

// DefaultTask is used when the request names no task, and as the fallback
// instruction for unrecognized tasks.
const DefaultTask = TaskCleanup

var instructions = map[string]string{
	TaskCleanup:     "Clean up this transcribed speech. Fix grammar, punctuation, and formatting while preserving the original meaning. Return only the cleaned text:",
	TaskSummarize:   "Summarize this transcribed speech concisely, capturing the key points:",
	TaskActionItems: "Extract action items and key tasks from this transcribed speech. Format as a bullet list:",
	TaskFormat:      "Format this transcribed speech into well-structured paragraphs with proper punctuation and headings where appropriate:",
}

// Tasks lists the recognized task names.
func Tasks() []string {
	return []string{TaskCleanup, TaskSummarize, TaskActionItems, TaskFormat}
}

// Instruction returns the instruction for task. Unknown tasks get the
// cleanup instruction and ok=false.
func Instruction(task string) (instruction string, ok bool) {
	if s, found := instructions[task]; found {
		return s, true
	}
	return instructions[DefaultTask], false
}

// BuildPrompt joins the task instruction and the input text with a blank line.
func BuildPrompt(task, text string) string {
	instruction, _ := Instruction(task)
	return instruction + "\n\n" + text
}
