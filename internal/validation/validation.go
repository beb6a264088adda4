package validation

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed *.json
var schemaFS embed.FS

// compiled schemas by file name
var schemaCache sync.Map

// ValidationError represents a schema validation error
type ValidationError struct {
	Errors []string
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ValidateJSON validates a data structure against an embedded JSON schema
// schemaName should be the filename of the schema (e.g., "signature-definition.json")
// data should be the parsed YAML/JSON data as interface{}
func ValidateJSON(schemaName string, data interface{}) error {
	schema, err := loadSchema(schemaName)
	if err != nil {
		return err
	}

	err = schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return ValidationError{Errors: []string{err.Error()}}
	}

	messages := leafMessages(validationErr)
	// Add the main error message if there are no causes
	if len(messages) == 0 {
		messages = append(messages, validationErr.Message)
	}
	return ValidationError{Errors: messages}
}

// ValidateYAML validates YAML content against an embedded JSON schema
// yamlContent should be the raw YAML content as bytes
func ValidateYAML(schemaName string, yamlContent []byte) error {
	var data interface{}
	if err := yaml.Unmarshal(yamlContent, &data); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return ValidateJSON(schemaName, data)
}

// ValidateStruct validates a Go struct against an embedded JSON schema
// The struct is round-tripped through YAML so its yaml tags decide the field names
func ValidateStruct(schemaName string, structData interface{}) error {
	yamlContent, err := yaml.Marshal(structData)
	if err != nil {
		return fmt.Errorf("failed to marshal struct: %w", err)
	}

	return ValidateYAML(schemaName, yamlContent)
}

// ListAvailableSchemas returns a list of available schema filenames
func ListAvailableSchemas() ([]string, error) {
	entries, err := schemaFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var schemas []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			schemas = append(schemas, entry.Name())
		}
	}

	return schemas, nil
}

func loadSchema(schemaName string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schemaName); ok {
		return cached.(*jsonschema.Schema), nil
	}

	schemaData, err := schemaFS.ReadFile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", schemaName, err)
	}

	schema, err := jsonschema.CompileString(schemaName, string(schemaData))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", schemaName, err)
	}

	schemaCache.Store(schemaName, schema)
	return schema, nil
}

// leafMessages flattens nested causes (oneOf/anyOf branches) into the
// messages of the innermost errors, prefixed with their instance location
func leafMessages(err *jsonschema.ValidationError) []string {
	var messages []string
	for _, cause := range err.Causes {
		if len(cause.Causes) == 0 {
			messages = append(messages, formatCause(cause))
			continue
		}
		messages = append(messages, leafMessages(cause)...)
	}
	return messages
}

func formatCause(err *jsonschema.ValidationError) string {
	if err.InstanceLocation == "" {
		return err.Message
	}
	return err.InstanceLocation + ": " + err.Message
}
