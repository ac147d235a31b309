package validation

import (
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// FieldErrors maps each failing field to the rule it broke.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			out[fe.Namespace()] = rule
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}

// Describe renders FieldErrors as a stable one-line message.
func Describe(err error) string {
	fields := FieldErrors(err)
	parts := make([]string, 0, len(fields))
	for field, rule := range fields {
		parts = append(parts, field+": "+rule)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
