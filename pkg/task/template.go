package task

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Render substitutes {key} slots with values from p. {{ and }} produce literal braces.
func Render(template string, p Params) (string, error) {
	var b strings.Builder
	err := scanTemplate(template, func(literal string) {
		b.WriteString(literal)
	}, func(key string) error {
		v, ok := p[key]
		if !ok {
			return &MissingParameterError{Key: key}
		}
		fmt.Fprint(&b, v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Placeholders returns the slot names of template in order of appearance.
func Placeholders(template string) ([]string, error) {
	var keys []string
	err := scanTemplate(template, func(string) {}, func(key string) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// RewritePlaceholders renames slots according to mapping, leaving escapes intact.
func RewritePlaceholders(template string, mapping map[string]string) (string, error) {
	var b strings.Builder
	err := scanTemplate(template, func(literal string) {
		b.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(literal))
	}, func(key string) error {
		if renamed, ok := mapping[key]; ok {
			key = renamed
		}
		b.WriteString("{" + key + "}")
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func scanTemplate(template string, literal func(string), slot func(string) error) error {
	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == '{' && strings.HasPrefix(template[i:], "{{"):
			literal("{")
			i += 2
		case c == '}' && strings.HasPrefix(template[i:], "}}"):
			literal("}")
			i += 2
		case c == '}':
			return fmt.Errorf("%w: single '}' at offset %d", ErrMalformedTemplate, i)
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			key := template[i+1 : i+1+end]
			if !isIdentifier(key) {
				return fmt.Errorf("%w: bad placeholder %q", ErrMalformedTemplate, key)
			}
			if err := slot(key); err != nil {
				return err
			}
			i += end + 2
		default:
			j := strings.IndexAny(template[i:], "{}")
			if j < 0 {
				j = len(template) - i
			}
			literal(template[i : i+j])
			i += j
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
