// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"formdesk-workers/pkg/registry"
)

// WorkerData feeds the scaffold templates for one registry activity.
type WorkerData struct {
	Name         string
	PackageName  string
	TaskType     string
	InputSchema  map[string]interface{}
	OutputSchema map[string]interface{}
	ErrorCodes   []string
	Description  string
	Category     string
	Timeout      string
	Retries      int
}

// parseSchema extracts the properties map from a JSON schema object.
func parseSchema(schemaObj interface{}) map[string]interface{} {
	if schemaMap, ok := schemaObj.(map[string]interface{}); ok {
		if props, exists := schemaMap["properties"]; exists {
			if properties, ok := props.(map[string]interface{}); ok {
				return properties
			}
		}
	}
	return map[string]interface{}{}
}

func goTypeFromJSONType(jsonType interface{}) string {
	jt, ok := jsonType.(string)
	if !ok {
		return "interface{}"
	}
	switch jt {
	case "string":
		return "string"
	case "number":
		return "float64"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// generateStructFields renders Go struct fields from schema properties.
func generateStructFields(properties map[string]interface{}) string {
	var fields []string
	for prop, details := range properties {
		propDetails, ok := details.(map[string]interface{})
		if !ok {
			continue
		}
		goType := goTypeFromJSONType(propDetails["type"])
		fields = append(fields, fmt.Sprintf("\t%s %s `json:\"%s\"`", upperFirst(prop), goType, prop))
	}
	return strings.Join(fields, "\n")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          ` + "`mapstructure:\"enabled\"`" + `
	MaxJobsActive int           ` + "`mapstructure:\"max_jobs_active\"`" + `
	Timeout       time.Duration ` + "`mapstructure:\"timeout\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
`

const modelsTemplate = `package {{ .PackageName }}

type Input struct {
{{- $inputProps := parseSchema .InputSchema }}
{{- if $inputProps }}
{{ generateStructFields $inputProps }}
{{- end }}
}

type Output struct {
{{- $outputProps := parseSchema .OutputSchema }}
{{- if $outputProps }}
{{ generateStructFields $outputProps }}
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"time"

	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{ .TaskType }}"

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job",
		map[string]interface{}{
			"jobKey":      job.Key,
			"workflowKey": job.ProcessInstanceKey,
		})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewSubmissionParseFailedError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ExportJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.ExportJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute carries the task's business logic; fill it in for {{ .Name }}.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := err.(*errors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.ExportJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formdesk-workers/internal/common/logger"
)

func TestExecute(t *testing.T) {
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotNil(t, out)
}
`

const readmeTemplate = `# {{ .Name }}

{{ .Description }}

- **Task type**: ` + "`{{ .TaskType }}`" + `
- **Category**: {{ .Category }}
- **Timeout**: {{ .Timeout }}
- **Retries**: {{ .Retries }}
{{- if .ErrorCodes }}
- **Error codes**: {{ range $i, $c := .ErrorCodes }}{{ if $i }}, {{ end }}` + "`{{ $c }}`" + `{{ end }}
{{- end }}

Register the handler in cmd/worker-manager/main.go and add a ` + "`{{ .PackageName }}`" + `
entry under ` + "`workers:`" + ` in configs/config.yaml.
`

func main() {
	activity := flag.String("activity", "", "Activity ID from the registry (e.g. fetch-submissions)")
	outputDir := flag.String("output", "./internal/workers/", "Output directory for the generated worker")
	registryPath := flag.String("registry", "configs/registry.json", "Path to the activity registry")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator --activity <id> [--output <dir>] [--registry <path>]")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	data := WorkerData{
		Name:         found.DisplayName,
		PackageName:  strings.ReplaceAll(found.ID, "-", ""),
		TaskType:     found.TaskType,
		InputSchema:  found.InputSchema,
		OutputSchema: found.OutputSchema,
		ErrorCodes:   found.ErrorCodes,
		Description:  found.Description,
		Category:     found.Category,
		Timeout:      found.Timeout,
		Retries:      found.Retries,
	}

	workerDir := filepath.Join(*outputDir, strings.ToLower(data.Category), found.ID)
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	funcMap := template.FuncMap{
		"parseSchema":          parseSchema,
		"generateStructFields": generateStructFields,
		"upperFirst":           upperFirst,
	}

	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
		"README.md":       readmeTemplate,
	}

	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		filePath := filepath.Join(workerDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", filePath, err)
			continue
		}
		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("generated %s\n", filePath)
	}

	fmt.Printf("\nWorker scaffold generated at %s\n", workerDir)
	fmt.Println("Next: implement Execute, register the worker in cmd/worker-manager/main.go,")
	fmt.Println("and add its entry to configs/config.yaml.")
}
