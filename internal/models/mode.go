package models

import "fmt"

// GenerationMode selects which capability a submission is dispatched to.
type GenerationMode string

const (
	ModeCopywriting GenerationMode = "copywriting"
	ModeResearch    GenerationMode = "research"
	ModeVisual      GenerationMode = "visual"
	ModeVideo       GenerationMode = "video"
)

// ParseGenerationMode validates a wire value against the known modes.
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch GenerationMode(s) {
	case ModeCopywriting, ModeResearch, ModeVisual, ModeVideo:
		return GenerationMode(s), nil
	default:
		return "", fmt.Errorf("unknown generation mode: %q", s)
	}
}
