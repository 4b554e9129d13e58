package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/go-playground/validator/v10"
)

// fromValidator converts validator field errors into details, in the order
// the validator reported them.
//
// Cross-field rules are reported on the parent object, the way a schema
// validator reports them: required_without becomes object.missing and
// excluded_with becomes object.xor, both with the two field names as
// context "peers". A pair reported from both sides is kept once.
func fromValidator(fieldErrors validator.ValidationErrors, root reflect.Type) []errs.Detail {
	details := make([]errs.Detail, 0, len(fieldErrors))
	seen := make(map[string]struct{})

	for _, fe := range fieldErrors {
		d := toDetail(fe, root)

		if peers, ok := d.Context["peers"].([]any); ok {
			key := peerKey(d, peers)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		details = append(details, d)
	}

	return details
}

func toDetail(fe validator.FieldError, root reflect.Type) errs.Detail {
	path := namespacePath(fe.Namespace())
	name := label(path)
	param := fe.Param()

	ctx := map[string]any{"label": name, "key": name}
	if param != "" {
		ctx["limit"] = param
	}

	detail := func(kind, format string, args ...any) errs.Detail {
		return errs.Detail{
			Path:    path,
			Type:    kind,
			Message: fmt.Sprintf("%q ", name) + fmt.Sprintf(format, args...),
			Context: ctx,
		}
	}

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_with_all", "required_without_all":
		return detail("any.required", "is required")

	case "required_without", "excluded_with":
		parent := path
		if len(parent) > 0 {
			parent = parent[:len(parent)-1]
		}
		peer := peerName(root, fe.StructNamespace(), param)
		peers := []any{name, peer}
		ctx := map[string]any{"peers": peers, "label": label(parent), "key": label(parent)}

		if fe.Tag() == "required_without" {
			return errs.Detail{
				Path:    parent,
				Type:    "object.missing",
				Message: fmt.Sprintf("%q must contain at least one of [%s, %s]", label(parent), name, peer),
				Context: ctx,
			}
		}
		return errs.Detail{
			Path:    parent,
			Type:    "object.xor",
			Message: fmt.Sprintf("%q contains a conflict between exclusive peers [%s, %s]", label(parent), name, peer),
			Context: ctx,
		}

	case "oneof":
		valids := strings.Fields(param)
		ctx["valids"] = valids
		return detail("any.allowOnly", "must be one of [%s]", strings.Join(valids, ", "))

	case "email":
		return detail("string.email", "must be a valid email")

	case "uuid", "uuid4", "uuid_rfc4122", "uuid4_rfc4122":
		return detail("string.guid", "must be a valid GUID")

	case "url", "uri", "http_url":
		return detail("string.uri", "must be a valid uri")

	case "min", "gte":
		return bound(detail, fe.Kind(), "min", param)

	case "max", "lte":
		return bound(detail, fe.Kind(), "max", param)

	case "len":
		return bound(detail, fe.Kind(), "length", param)

	case "gt":
		return detail("number.greater", "must be greater than %s", param)

	case "lt":
		return detail("number.less", "must be less than %s", param)
	}

	if param != "" {
		return detail("any.invalid", "failed on the '%s=%s' rule", fe.Tag(), param)
	}
	return detail("any.invalid", "failed on the '%s' rule", fe.Tag())
}

// bound reports min / max / length rules with the wording of the value's
// kind: characters for strings, items for collections, value for numbers.
func bound(detail func(kind, format string, args ...any) errs.Detail, kind reflect.Kind, rule, limit string) errs.Detail {
	switch kind {
	case reflect.String:
		switch rule {
		case "min":
			return detail("string.min", "length must be at least %s characters long", limit)
		case "max":
			return detail("string.max", "length must be less than or equal to %s characters long", limit)
		default:
			return detail("string.length", "length must be %s characters long", limit)
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		switch rule {
		case "min":
			return detail("array.min", "must contain at least %s items", limit)
		case "max":
			return detail("array.max", "must contain less than or equal to %s items", limit)
		default:
			return detail("array.length", "must contain %s items", limit)
		}
	default:
		switch rule {
		case "min":
			return detail("number.min", "must be greater than or equal to %s", limit)
		case "max":
			return detail("number.max", "must be less than or equal to %s", limit)
		default:
			return detail("number.length", "must be %s", limit)
		}
	}
}

// namespacePath turns a validator namespace ("createRequest.items[2].price")
// into a Path ({"items", 2, "price"}). The leading struct name is dropped.
func namespacePath(namespace string) errs.Path {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}

	path := make(errs.Path, 0, len(parts))
	for _, part := range parts {
		name, rest, indexed := strings.Cut(part, "[")
		if name != "" {
			path = append(path, name)
		}
		if !indexed {
			continue
		}

		for _, idx := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			if i, err := strconv.Atoi(idx); err == nil {
				path = append(path, i)
			} else {
				path = append(path, idx)
			}
		}
	}

	return path
}

// peerName resolves the json name of the Go field named param, a sibling of
// the field at structNamespace. It falls back to param itself.
func peerName(root reflect.Type, structNamespace, param string) string {
	parent := deref(root)
	parts := strings.Split(structNamespace, ".")
	if len(parts) < 2 || parent == nil {
		return param
	}

	for _, part := range parts[1 : len(parts)-1] {
		name, _, indexed := strings.Cut(part, "[")
		if parent.Kind() != reflect.Struct {
			return param
		}
		f, ok := parent.FieldByName(name)
		if !ok {
			return param
		}
		parent = deref(f.Type)
		if indexed && parent != nil {
			parent = deref(parent.Elem())
		}
	}

	if parent == nil || parent.Kind() != reflect.Struct {
		return param
	}
	f, ok := parent.FieldByName(param)
	if !ok {
		return param
	}
	if name := jsonName(f); name != "" {
		return name
	}
	return param
}

func peerKey(d errs.Detail, peers []any) string {
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, fmt.Sprint(p))
	}
	sort.Strings(names)
	return d.Type + "|" + d.Path.String() + "|" + strings.Join(names, ",")
}
