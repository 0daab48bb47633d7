// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"formdesk-workers/pkg/registry"
)

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	idAdd := addCmd.String("id", "", "Activity ID (e.g. export-submissions-csv)")
	displayName := addCmd.String("displayName", "", "Display name")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (submission, export, sync)")
	taskType := addCmd.String("taskType", "", "Zeebe task type (defaults to the ID)")
	timeout := addCmd.String("timeout", "30s", "Job timeout")
	retries := addCmd.Int("retries", 3, "Retry count")
	errorCodes := addCmd.String("errorCodes", "", "Comma-separated error codes")
	tags := addCmd.String("tags", "", "Comma-separated tags")
	registryAdd := addCmd.String("registry", "configs/registry.json", "Registry path")

	registryValidate := validateCmd.String("registry", "configs/registry.json", "Registry path")
	registryList := listCmd.String("registry", "configs/registry.json", "Registry path")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" {
			fmt.Println("add requires --id, --displayName and --category")
			os.Exit(1)
		}
		tt := *taskType
		if tt == "" {
			tt = *idAdd
		}
		activity := registry.Activity{
			ID:           *idAdd,
			DisplayName:  *displayName,
			Description:  *description,
			Category:     *category,
			TaskType:     tt,
			InputSchema:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
			OutputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
			ErrorCodes:   splitList(*errorCodes),
			Timeout:      *timeout,
			Retries:      *retries,
			Tags:         splitList(*tags),
		}
		if err := addActivity(*registryAdd, activity); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added activity %s to %s\n", *idAdd, *registryAdd)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*registryValidate); err != nil {
			fmt.Printf("Registry invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry %s is valid\n", *registryValidate)

	case "list":
		listCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*registryList)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, a := range reg.Activities {
			fmt.Printf("%-28s %-12s %s\n", a.TaskType, a.Category, a.DisplayName)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: registry-updater <add|validate|list> [flags]")
	fmt.Println("  add       add a new activity to the registry")
	fmt.Println("  validate  check the registry for duplicate or incomplete entries")
	fmt.Println("  list      print the registered task types")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}

	for _, a := range reg.Activities {
		if a.ID == activity.ID {
			return fmt.Errorf("activity %s already exists", activity.ID)
		}
		if a.TaskType == activity.TaskType {
			return fmt.Errorf("task type %s already taken by %s", activity.TaskType, a.ID)
		}
	}

	reg.Activities = append(reg.Activities, activity)
	reg.LastUpdated = time.Now().Format("2006-01-02")
	return writeRegistry(path, reg)
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}

	seenID := map[string]bool{}
	seenTask := map[string]bool{}
	for _, a := range reg.Activities {
		if a.ID == "" || a.TaskType == "" || a.DisplayName == "" {
			return fmt.Errorf("activity %q is missing id, taskType or displayName", a.ID)
		}
		if seenID[a.ID] {
			return fmt.Errorf("duplicate activity id %s", a.ID)
		}
		if seenTask[a.TaskType] {
			return fmt.Errorf("duplicate task type %s", a.TaskType)
		}
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
		}
		seenID[a.ID] = true
		seenTask[a.TaskType] = true
	}
	return nil
}

func writeRegistry(path string, reg *registry.ActivityRegistry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
