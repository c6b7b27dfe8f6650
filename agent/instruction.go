package agent

// Instruction is the immutable system text of an agent.
type Instruction struct {
	text string
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// Text returns the instruction text.
func (i Instruction) Text() string { return i.text }

// IsEmpty reports whether the instruction carries no text.
func (i Instruction) IsEmpty() bool { return i.text == "" }
