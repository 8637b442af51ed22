package models

import "strings"

// ProjectContext holds the user-editable brand strategy threaded into every
// copywriting request.
type ProjectContext struct {
	BrandName string `json:"brand_name"`
	Industry  string `json:"industry"`
	Tone      string `json:"tone"`
}

// Summary renders the context as a prompt prefix. Empty fields are skipped;
// an entirely empty context yields "".
func (c ProjectContext) Summary() string {
	var parts []string
	if v := strings.TrimSpace(c.BrandName); v != "" {
		parts = append(parts, "Brand: "+v+".")
	}
	if v := strings.TrimSpace(c.Industry); v != "" {
		parts = append(parts, "Industry: "+v+".")
	}
	if v := strings.TrimSpace(c.Tone); v != "" {
		parts = append(parts, "Tone of voice: "+v+".")
	}
	return strings.Join(parts, " ")
}
