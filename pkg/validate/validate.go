// Package validate provides struct-tag validation for request inputs.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gt=N                number > N
//	gte=N               number >= N
//	lt=N                number < N
//	lte=N               number <= N
//	in=a,b,c            value must be one of the listed items
//
// Example:
//
//	type Input struct {
//	    Email    string `json:"email"    validate:"required,email"`
//	    Quantity int    `json:"quantity" validate:"required,gte=1"`
//	    Role     string `json:"role"     validate:"nullable,in=admin,user"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		rules := splitRules(tag)

		// If `nullable` is present and the field is empty — skip all rules.
		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		// Rules apply to the pointed-to value for optional pointer fields.
		if value.Kind() == reflect.Ptr && !value.IsNil() {
			value = value.Elem()
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// HasErrors reports whether the map returned by Struct contains any failures.
func HasErrors(errs map[string]string) bool {
	return len(errs) > 0
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}

// splitRules splits the tag on commas, but keeps `in=a,b,c` lists together.
func splitRules(tag string) []string {
	parts := strings.Split(tag, ",")
	var rules []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(rules) > 0 && strings.HasPrefix(rules[len(rules)-1], "in=") && !strings.Contains(p, "=") {
			rules[len(rules)-1] += "," + p
			continue
		}
		rules = append(rules, p)
	}
	return rules
}

func hasRule(rules []string, name string) bool {
	for _, r := range rules {
		if r == name {
			return true
		}
	}
	return false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

func applyRule(rule, name string, value reflect.Value) string {
	key, arg := rule, ""
	if idx := strings.IndexByte(rule, '='); idx >= 0 {
		key, arg = rule[:idx], rule[idx+1:]
	}

	switch key {
	case "required":
		if isEmpty(value) {
			return fmt.Sprintf("The %s field is required.", name)
		}
	case "email":
		if !emailRe.MatchString(value.String()) {
			return fmt.Sprintf("The %s field must be a valid email address.", name)
		}
	case "min":
		n, _ := strconv.ParseFloat(arg, 64)
		if value.Kind() == reflect.String {
			if float64(len(value.String())) < n {
				return fmt.Sprintf("The %s field must be at least %s characters.", name, arg)
			}
		} else if num, ok := numeric(value); ok && num < n {
			return fmt.Sprintf("The %s field must be at least %s.", name, arg)
		}
	case "max":
		n, _ := strconv.ParseFloat(arg, 64)
		if value.Kind() == reflect.String {
			if float64(len(value.String())) > n {
				return fmt.Sprintf("The %s field may not be greater than %s characters.", name, arg)
			}
		} else if num, ok := numeric(value); ok && num > n {
			return fmt.Sprintf("The %s field may not be greater than %s.", name, arg)
		}
	case "gt":
		if num, ok := numeric(value); ok {
			if n, _ := strconv.ParseFloat(arg, 64); num <= n {
				return fmt.Sprintf("The %s field must be greater than %s.", name, arg)
			}
		}
	case "gte":
		if num, ok := numeric(value); ok {
			if n, _ := strconv.ParseFloat(arg, 64); num < n {
				return fmt.Sprintf("The %s field must be at least %s.", name, arg)
			}
		}
	case "lt":
		if num, ok := numeric(value); ok {
			if n, _ := strconv.ParseFloat(arg, 64); num >= n {
				return fmt.Sprintf("The %s field must be less than %s.", name, arg)
			}
		}
	case "lte":
		if num, ok := numeric(value); ok {
			if n, _ := strconv.ParseFloat(arg, 64); num > n {
				return fmt.Sprintf("The %s field may not be greater than %s.", name, arg)
			}
		}
	case "in":
		allowed := strings.Split(arg, ",")
		got := fmt.Sprintf("%v", value.Interface())
		for _, a := range allowed {
			if got == a {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", name)
	}

	return ""
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
