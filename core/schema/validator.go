package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asaidimu/go-odata/core/query"
)

// Validator checks query definitions for problems that the QueryBuilder
// would otherwise reject one at a time. It reports every issue it finds.
type Validator struct {
	issues []Issue
}

// NewValidator creates a new Validator instance. The returned validator can
// be reused for multiple validation operations.
func NewValidator() *Validator {
	return &Validator{issues: make([]Issue, 0)}
}

// Validate checks def and returns whether it is valid along with any issues.
func (v *Validator) Validate(def *QueryDefinition) (bool, []Issue) {
	v.issues = make([]Issue, 0)
	if def == nil {
		v.addIssue("MISSING_DEFINITION", "query definition cannot be nil", "")
		return false, v.issues
	}
	v.validateDefinition(def, "", true)
	return len(v.issues) == 0, v.issues
}

func (v *Validator) validateDefinition(def *QueryDefinition, path string, topLevel bool) {
	if def.Base != "" && !topLevel {
		v.addIssue("UNEXPECTED_BASE", "base is only allowed on the top-level query", join(path, "base"))
	}

	for i, field := range def.Select {
		if strings.TrimSpace(field) == "" {
			v.addIssue("EMPTY_FIELD", "select field cannot be empty", fmt.Sprintf("%s[%d]", join(path, "select"), i))
		}
	}

	seen := make(map[string]bool, len(def.Expand))
	for i, expand := range def.Expand {
		expandPath := fmt.Sprintf("%s[%d]", join(path, "expand"), i)
		if expand.Property == "" {
			v.addIssue("MISSING_PROPERTY", "expand property is required", join(expandPath, "property"))
		} else if seen[expand.Property] {
			v.addIssue("DUPLICATE_EXPAND", fmt.Sprintf("navigation property %s is expanded more than once", expand.Property), join(expandPath, "property"))
		}
		seen[expand.Property] = true
		if expand.Query != nil {
			v.validateDefinition(expand.Query, join(expandPath, "query"), false)
		}
	}

	for i, clause := range def.OrderBy {
		clausePath := fmt.Sprintf("%s[%d]", join(path, "orderby"), i)
		if clause.Field == "" {
			v.addIssue("MISSING_FIELD", "orderby field is required", join(clausePath, "field"))
		}
		if !clause.Direction.Valid() {
			v.addIssue("INVALID_SORT_DIRECTION", fmt.Sprintf("unknown sort direction %q", clause.Direction), join(clausePath, "direction"))
		}
	}

	v.validateNonNegative(def.Top, join(path, "top"))
	v.validateNonNegative(def.Skip, join(path, "skip"))

	aliases := make([]string, 0, len(def.Params))
	for alias := range def.Params {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		aliasPath := join(path, "params."+alias)
		if !strings.HasPrefix(alias, string(query.AliasMarker)) {
			v.addIssue("INVALID_ALIAS", fmt.Sprintf("alias %q must start with %q", alias, query.AliasMarker), aliasPath)
		}
		if def.Params[alias] == "" {
			v.addIssue("MISSING_VALUE", fmt.Sprintf("alias %s has no value", alias), aliasPath)
		}
	}
}

func (v *Validator) validateNonNegative(value *int, path string) {
	if value != nil && *value < 0 {
		v.addIssue("NEGATIVE_VALUE", fmt.Sprintf("value must not be negative, got %d", *value), path)
	}
}

// addIssue is a helper function to add a new validation issue.
func (v *Validator) addIssue(code, message, path string) {
	issue := Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	}
	v.issues = append(v.issues, issue)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
