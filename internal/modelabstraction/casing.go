package modelabstraction

import "strings"

// ToSnakeCase converts each top-level key of params from the canonical
// camelCase the core speaks into snake_case, the casing OpenAI- and
// Google-style providers expect on the wire. Nested values are passed
// through unchanged.
func ToSnakeCase(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[camelToSnake(k)] = v
	}
	return out
}

// ToCamelCase converts each top-level key of params from snake_case back to
// camelCase, the casing returned to the core from every adapter regardless
// of wire format.
func ToCamelCase(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[snakeToCamel(k)] = v
	}
	return out
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// UsesMaxCompletionTokens reports whether model requires
// max_completion_tokens instead of max_tokens, per the OpenAI-family rule:
// identifiers beginning with "o", "o3", "o4", or "gpt-5".
func UsesMaxCompletionTokens(model string) bool {
	for _, prefix := range []string{"o3", "o4", "gpt-5", "o"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
