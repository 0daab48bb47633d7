// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry %s: %w", path, err)
	}
	return &reg, nil
}

// FindByTaskType returns the activity registered under the given task type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists every registered task type in registry order.
func (r *ActivityRegistry) TaskTypes() []string {
	types := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		types = append(types, a.TaskType)
	}
	return types
}
