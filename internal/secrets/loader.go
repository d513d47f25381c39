// Package secrets resolves credentials such as the inference gateway key.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source names where a secret may come from. File wins over Value.
type Source struct {
	// Name appears in error messages.
	Name  string
	Value string
	File  string
}

// Load returns the trimmed secret or an error naming the missing source.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	value := src.Value
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		value = string(data)
	}

	if secret := strings.TrimSpace(value); secret != "" {
		return secret, nil
	}
	if file != "" {
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}
	return "", fmt.Errorf("%s is not configured", name)
}
