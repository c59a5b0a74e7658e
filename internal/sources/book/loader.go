package book

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	// "{{x}}" as a whole quoted value.
	quotedTemplateValue = regexp.MustCompile(`"\{\{[^}]+\}\}"`)
	// {{x}} as a whole bare YAML value: after a key, list dash or flow separator.
	bareTemplateValue = regexp.MustCompile(`(?m)(^|[:\-\[,]\s*)\{\{[^}]+\}\}(\s*(?:$|[,}\]#]))`)
	// {{x}} anywhere else, e.g. inside a longer string.
	templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)
)

// Loader reads a book configuration file. JSON books parse as YAML.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the book file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read book file: %w", err)
	}
	return Parse(data)
}

// Parse decodes book file contents.
func Parse(data []byte) (File, error) {
	data = stripTemplateVariables(data)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse book file: %w", err)
	}
	return f, nil
}

// stripTemplateVariables removes {{...}} placeholders left by book
// templating so the file still parses. A placeholder that is the whole
// value becomes an empty string; one inside a longer string is cut out.
// Example: "{{book.docsUrl}}" -> "", "{{book.host}}/docs" -> "/docs"
func stripTemplateVariables(data []byte) []byte {
	data = quotedTemplateValue.ReplaceAll(data, []byte(`""`))
	data = bareTemplateValue.ReplaceAll(data, []byte(`${1}""${2}`))
	return templateVar.ReplaceAll(data, nil)
}
