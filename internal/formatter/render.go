package formatter

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/spf13/cast"
	"github.com/valyala/fasttemplate"
)

const (
	tagStart = "{"
	tagEnd   = "}"

	// messageSeparator joins the messages of every detail group.
	messageSeparator = " or "
)

// quotedToken matches labels the validator wraps in double quotes, e.g. "test".
var quotedToken = regexp.MustCompile(`"\w+"`)

// group is every detail of one kind, in the order they were reported.
type group struct {
	kind    string
	details []errs.Detail
}

// groupByKind buckets details by Type, keeping the order in which each kind
// was first seen.
func groupByKind(details []errs.Detail) []group {
	var groups []group
	index := make(map[string]int)

	for _, d := range details {
		i, ok := index[d.Type]
		if !ok {
			i = len(groups)
			index[d.Type] = i
			groups = append(groups, group{kind: d.Type})
		}
		groups[i].details = append(groups[i].details, d)
	}

	return groups
}

// aggregate turns validation details into a single client message.
func aggregate(lang Language, details []errs.Detail) string {
	var messages []string

	for _, g := range groupByKind(details) {
		messages = append(messages, renderGroup(lang, g)...)
	}

	return strings.Join(messages, messageSeparator)
}

func renderGroup(lang Language, g group) []string {
	tmpl, ok := lang.Lookup(g.kind)

	if ok && tmpl.Plural != "" && len(g.details) > 1 {
		return []string{renderPlural(tmpl.Plural, g.details)}
	}

	out := make([]string, 0, len(g.details))
	for _, d := range g.details {
		if ok && tmpl.Singular != "" {
			out = append(out, renderSingular(tmpl.Singular, d))
			continue
		}
		out = append(out, fallbackMessage(d))
	}

	return out
}

// fallbackMessage is used for kinds without a template. A message carrying
// quoted labels gets them stripped and the field path prefixed; anything else
// is passed through untouched.
func fallbackMessage(d errs.Detail) string {
	if !quotedToken.MatchString(d.Message) {
		return d.Message
	}
	return d.Path.String() + quotedToken.ReplaceAllString(d.Message, "")
}

// renderSingular renders tmpl for one detail.
//
// Placeholders: {path}, {separator}, {detail.path}, {detail.type},
// {detail.message} and {detail.context.<key>[.<key>|.<index>...]}.
func renderSingular(tmpl string, d errs.Detail) string {
	path := d.Path.String()

	separator := ""
	if len(d.Path) > 0 {
		separator = "."
	}

	return execute(tmpl, func(tag string) string {
		switch tag {
		case "path":
			return path
		case "separator":
			return separator
		}

		if rest, ok := strings.CutPrefix(tag, "detail."); ok {
			return detailField(d, rest)
		}

		return ""
	})
}

// renderPlural renders tmpl once for a whole group.
//
// Placeholders: {paths_str}, {details.length} and {details.<index>.<field>}
// where <field> is anything {detail.<field>} accepts in a singular template.
func renderPlural(tmpl string, details []errs.Detail) string {
	paths := make([]string, 0, len(details))
	for _, d := range details {
		paths = append(paths, d.Path.String())
	}
	pathsStr := strings.Join(paths, ", ")

	return execute(tmpl, func(tag string) string {
		if tag == "paths_str" {
			return pathsStr
		}

		rest, ok := strings.CutPrefix(tag, "details.")
		if !ok {
			return ""
		}
		if rest == "length" {
			return strconv.Itoa(len(details))
		}

		head, field, _ := strings.Cut(rest, ".")
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 || i >= len(details) {
			return ""
		}

		return detailField(details[i], field)
	})
}

// detailField resolves the part of a placeholder after "detail.".
// Unknown fields and absent context entries resolve to "".
func detailField(d errs.Detail, field string) string {
	switch field {
	case "path":
		return d.Path.String()
	case "type":
		return d.Type
	case "message":
		return d.Message
	}

	key, ok := strings.CutPrefix(field, "context.")
	if !ok {
		return ""
	}

	return scalar(reach(d.Context, strings.Split(key, ".")))
}

// reach walks maps by key and slices by index. It returns nil as soon as a
// segment cannot be followed.
func reach(value any, segments []string) any {
	current := value

	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil
			}
			current = next
		case []any:
			current = index(node, segment)
		case []string:
			current = index(node, segment)
		case errs.Path:
			current = index([]any(node), segment)
		default:
			return nil
		}

		if current == nil {
			return nil
		}
	}

	return current
}

func index[T any](items []T, segment string) any {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= len(items) {
		return nil
	}
	return items[i]
}

// scalar renders a leaf value. Containers and unconvertible values render as "".
func scalar(value any) string {
	switch value.(type) {
	case map[string]any, []any, []string:
		return ""
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

func execute(tmpl string, resolve func(tag string) string) string {
	return fasttemplate.ExecuteFuncString(tmpl, tagStart, tagEnd, func(w io.Writer, tag string) (int, error) {
		return io.WriteString(w, resolve(strings.TrimSpace(tag)))
	})
}
