package formatter

import (
	"testing"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peers(a, b string) map[string]any {
	return map[string]any{"peers": []any{a, b}}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		details []errs.Detail
		want    string
	}{
		{
			name:    "single unknown field",
			details: []errs.Detail{{Path: errs.Path{"bar"}, Type: "object.allowUnknown", Message: `"bar" is not allowed`}},
			want:    "bar is not allowed",
		},
		{
			name: "several unknown fields use the plural form",
			details: []errs.Detail{
				{Path: errs.Path{"foo"}, Type: "object.allowUnknown"},
				{Path: errs.Path{"bar"}, Type: "object.allowUnknown"},
			},
			want: "the following parameters are not allowed: foo, bar",
		},
		{
			name: "nested unknown fields",
			details: []errs.Detail{
				{Path: errs.Path{"test", "foo"}, Type: "object.allowUnknown"},
				{Path: errs.Path{"test", "bar"}, Type: "object.allowUnknown"},
			},
			want: "the following parameters are not allowed: test.foo, test.bar",
		},
		{
			name:    "missing peers at the root",
			details: []errs.Detail{{Type: "object.missing", Context: peers("one", "two")}},
			want:    "one or two is required",
		},
		{
			name:    "missing peers nested",
			details: []errs.Detail{{Path: errs.Path{"test"}, Type: "object.missing", Context: peers("one", "two")}},
			want:    "test.one or test.two is required",
		},
		{
			name:    "xor at the root",
			details: []errs.Detail{{Type: "object.xor", Context: peers("one", "two")}},
			want:    "either one or two is required, but not both",
		},
		{
			name:    "xor nested",
			details: []errs.Detail{{Path: errs.Path{"test"}, Type: "object.xor", Context: peers("one", "two")}},
			want:    "either test.one or test.two is required, but not both",
		},
		{
			name:    "quoted labels stripped and path prefixed",
			details: []errs.Detail{{Path: errs.Path{"test"}, Type: "number.base", Message: `"test" must be a number`}},
			want:    "test must be a number",
		},
		{
			name:    "nested path prefixed",
			details: []errs.Detail{{Path: errs.Path{"test", "one"}, Type: "any.allowOnly", Message: `"one" must be one of [one, 1]`}},
			want:    "test.one must be one of [one, 1]",
		},
		{
			name:    "unquoted message passed through",
			details: []errs.Detail{{Path: errs.Path{"test"}, Type: "number.base", Message: "pass in a number"}},
			want:    "pass in a number",
		},
		{
			name: "same kind without template joined in order",
			details: []errs.Detail{
				{Path: errs.Path{"banana"}, Type: "number.base", Message: `"banana" must be a number`},
				{Path: errs.Path{"test"}, Type: "number.base", Message: `"test" must be a number`},
			},
			want: "banana must be a number or test must be a number",
		},
		{
			name: "unmatched kinds joined in order",
			details: []errs.Detail{
				{Path: errs.Path{"a"}, Type: "custom.a", Message: "A"},
				{Path: errs.Path{"b"}, Type: "custom.b", Message: "B"},
			},
			want: "A or B",
		},
		{
			name: "groups keep first-seen order",
			details: []errs.Detail{
				{Path: errs.Path{"foo"}, Type: "object.allowUnknown"},
				{Path: errs.Path{"age"}, Type: "number.base", Message: `"age" must be a number`},
				{Path: errs.Path{"bar"}, Type: "object.allowUnknown"},
			},
			want: "the following parameters are not allowed: foo, bar or age must be a number",
		},
		{
			name:    "absent context renders empty",
			details: []errs.Detail{{Type: "object.xor"}},
			want:    "either  or  is required, but not both",
		},
		{
			name:    "slice index in path",
			details: []errs.Detail{{Path: errs.Path{"items", 2, "price"}, Type: "number.base", Message: `"price" must be a number`}},
			want:    "items.2.price must be a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregate(DefaultLanguage(), tt.details))
		})
	}
}

func TestAggregate_CustomLanguage(t *testing.T) {
	t.Run("override singular only", func(t *testing.T) {
		lang, err := MergeLanguage(DefaultLanguage(), Language{
			"object": map[string]any{"allowUnknown": map[string]any{"singular": "blarf"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "blarf", aggregate(lang, []errs.Detail{{Path: errs.Path{"bar"}, Type: "object.allowUnknown"}}))
		assert.Equal(t, "the following parameters are not allowed: foo, bar", aggregate(lang, []errs.Detail{
			{Path: errs.Path{"foo"}, Type: "object.allowUnknown"},
			{Path: errs.Path{"bar"}, Type: "object.allowUnknown"},
		}))
		assert.Equal(t, "one or two is required", aggregate(lang, []errs.Detail{{Type: "object.missing", Context: peers("one", "two")}}))
	})

	t.Run("new kind with detail placeholders", func(t *testing.T) {
		lang, err := MergeLanguage(DefaultLanguage(), Language{
			"number": Template{
				Singular: "{path} is not a number ({detail.type})",
				Plural:   "{details.length} fields are not numbers: {paths_str}, first: {details.0.path}",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "age is not a number (number)", aggregate(lang, []errs.Detail{{Path: errs.Path{"age"}, Type: "number"}}))
		assert.Equal(t, "2 fields are not numbers: age, height, first: age", aggregate(lang, []errs.Detail{
			{Path: errs.Path{"age"}, Type: "number"},
			{Path: errs.Path{"height"}, Type: "number"},
		}))
	})

	t.Run("context peer out of range", func(t *testing.T) {
		lang, err := MergeLanguage(DefaultLanguage(), Language{
			"object": map[string]any{"missing": Template{Singular: "{detail.context.peers.0}, {detail.context.peers.1} or {detail.context.peers.2}"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "one, two or ", aggregate(lang, []errs.Detail{{Type: "object.missing", Context: peers("one", "two")}}))
	})

	t.Run("plural only template with one detail falls back", func(t *testing.T) {
		lang, err := MergeLanguage(DefaultLanguage(), Language{
			"string": map[string]any{"min": map[string]any{"plural": "{paths_str} are too short"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "name length must be at least 3 characters long", aggregate(lang, []errs.Detail{
			{Path: errs.Path{"name"}, Type: "string.min", Message: `"name" length must be at least 3 characters long`},
		}))
		assert.Equal(t, "name, city are too short", aggregate(lang, []errs.Detail{
			{Path: errs.Path{"name"}, Type: "string.min"},
			{Path: errs.Path{"city"}, Type: "string.min"},
		}))
	})
}

func TestRenderSingular_Placeholders(t *testing.T) {
	d := errs.Detail{
		Path:    errs.Path{"user", "tags", 0},
		Type:    "string.max",
		Message: `"0" is too long`,
		Context: map[string]any{"limit": 10, "nested": map[string]any{"names": []string{"x", "y"}}},
	}

	assert.Equal(t, "user.tags.0|.|string.max|10|y|", renderSingular(
		"{path}|{separator}|{detail.type}|{detail.context.limit}|{detail.context.nested.names.1}|{unknown}", d,
	))
	assert.Equal(t, "", renderSingular("{detail.context.nested}", d))
	assert.Equal(t, "{unterminated", renderSingular("{unterminated", d))
}

func TestGroupByKind(t *testing.T) {
	groups := groupByKind([]errs.Detail{
		{Type: "b"}, {Type: "a"}, {Type: "b"}, {Type: "c"},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "b", groups[0].kind)
	assert.Len(t, groups[0].details, 2)
	assert.Equal(t, "a", groups[1].kind)
	assert.Equal(t, "c", groups[2].kind)
}
