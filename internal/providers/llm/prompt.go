package llm

import (
	"fmt"
	"os"
	"strings"
)

// LoadSystemInstruction reads the system instruction shared by every completion.
func LoadSystemInstruction(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system instruction: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("system instruction %s is empty", path)
	}
	return text, nil
}
