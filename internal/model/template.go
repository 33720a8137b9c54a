// internal/model/template.go
package model

import (
	"encoding/json"
	"time"
)

// Template references a provider-side content template by SID. The provider
// renders the message; we only supply variables.
type Template struct {
	ID            int        `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	TemplateSID   string     `db:"template_sid" json:"template_sid"`
	Description   string     `db:"description" json:"description"`
	VariablesJSON string     `db:"variables_json" json:"-"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// SetVariables stores the declared variable names as JSON.
func (t *Template) SetVariables(vars []string) error {
	b, err := json.Marshal(vars)
	if err != nil {
		return err
	}
	t.VariablesJSON = string(b)
	return nil
}

// Variables decodes the declared variable names for this template.
func (t *Template) Variables() []string {
	if t.VariablesJSON == "" {
		return nil
	}
	var vars []string
	if err := json.Unmarshal([]byte(t.VariablesJSON), &vars); err != nil {
		return nil
	}
	return vars
}
