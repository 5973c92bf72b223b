package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/normalizr/merge"
)

func TestEntitySchema_Normalize(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	out, err := items.Normalize(map[string]any{"id": 1})
	require.NoError(t, err)

	assert.Equal(t, &Output{
		Result: "1",
		Entities: Entities{
			"items": {"1": {"id": 1}},
		},
	}, out)
}

func TestEntitySchema_NestedEntity(t *testing.T) {
	users := MustBuild(Entity().ID("name").Name("users"))
	posts := MustBuild(Entity().
		ID("id").
		Name("posts").
		Prop("author", users))

	out, err := posts.Normalize(map[string]any{
		"id":     1,
		"title":  "Test Post",
		"author": map[string]any{"name": "Jack"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", out.Result)
	assert.Equal(t, Entities{
		"posts": {"1": {"id": 1, "title": "Test Post", "author": "Jack"}},
		"users": {"Jack": {"name": "Jack"}},
	}, out.Entities)
}

func TestEntitySchema_DefinedByName(t *testing.T) {
	users := MustBuild(Entity().ID("name").Name("users"))
	posts := MustBuild(Entity().
		ID("id").
		Name("posts").
		Prop("author", Ref("users")).
		Define(users))

	out, err := posts.Normalize(map[string]any{
		"id":     1,
		"author": map[string]any{"name": "Jack"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Jack", out.Entities["posts"]["1"]["author"])
	assert.Equal(t, Record{"name": "Jack"}, out.Entities["users"]["Jack"])
}

func TestEntitySchema_RecursiveSchema(t *testing.T) {
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("bestFriend", Ref("users")))

	out, err := users.Normalize(map[string]any{
		"name": "Jack",
		"bestFriend": map[string]any{
			"name": "Jill",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Jack", out.Result)
	assert.Equal(t, Entities{
		"users": {
			"Jack": {"name": "Jack", "bestFriend": "Jill"},
			"Jill": {"name": "Jill"},
		},
	}, out.Entities)
}

func TestEntitySchema_RecursiveCycleInData(t *testing.T) {
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("bestFriend", Ref("users")))

	// Jack -> Jill -> Jack, terminated by input depth.
	out, err := users.Normalize(map[string]any{
		"name": "Jack",
		"bestFriend": map[string]any{
			"name":       "Jill",
			"bestFriend": map[string]any{"name": "Jack"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, Record{"name": "Jack", "bestFriend": "Jill"}, out.Entities["users"]["Jack"])
	assert.Equal(t, Record{"name": "Jill", "bestFriend": "Jack"}, out.Entities["users"]["Jill"])
}

func TestEntitySchema_ArrayAndObjectProps(t *testing.T) {
	posts := MustBuild(Entity().ID("id").Name("posts"))
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("posts", ArrayValues(posts)).
		Prop("bestPosts", ObjectValues(Ref("posts"))))

	out, err := users.Normalize(map[string]any{
		"name": "Jack",
		"posts": []any{
			map[string]any{"id": 1, "title": "Test Post 1"},
			map[string]any{"id": 2, "title": "Test Post 2"},
		},
		"bestPosts": map[string]any{
			"stuff": map[string]any{"id": 3, "title": "Test Post 3"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, Entities{
		"users": {
			"Jack": {
				"name":      "Jack",
				"posts":     []string{"1", "2"},
				"bestPosts": map[string]string{"stuff": "3"},
			},
		},
		"posts": {
			"1": {"id": 1, "title": "Test Post 1"},
			"2": {"id": 2, "title": "Test Post 2"},
			"3": {"id": 3, "title": "Test Post 3"},
		},
	}, out.Entities)
}

func TestEntitySchema_PlainRefHoldingList(t *testing.T) {
	posts := MustBuild(Entity().ID("id").Name("posts"))
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("posts", Ref("posts")).
		Define(posts))

	out, err := users.Normalize(map[string]any{
		"name": "Jack",
		"posts": []any{
			map[string]any{"id": 2},
			map[string]any{"id": 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "1"}, out.Entities["users"]["Jack"]["posts"])
	assert.Len(t, out.Entities["posts"], 2)
}

func TestEntitySchema_EmptyEntities(t *testing.T) {
	foods := MustBuild(Entity().ID("name").Name("foods"))
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("favoriteFood", Ref("foods")).
		Define(foods))

	out, err := users.Normalize(map[string]any{"name": "Jack"})
	require.NoError(t, err)

	require.Contains(t, out.Entities, "foods")
	assert.Equal(t, map[string]Record{}, out.Entities["foods"])
}

func TestEntitySchema_TransitiveEmptyEntities(t *testing.T) {
	foods := MustBuild(Entity().ID("name").Name("foods"))
	users := MustBuild(Entity().ID("name").Name("users").Prop("favoriteFood", foods))
	posts := MustBuild(Entity().ID("id").Name("posts").Prop("author", users))

	assert.Equal(t, []string{"foods", "posts", "users"}, posts.Reachable())

	out, err := posts.Normalize(map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Empty(t, out.Entities["foods"])
	assert.Empty(t, out.Entities["users"])
	assert.Len(t, out.Entities["posts"], 1)
}

func TestEntitySchema_NilPropertyIsCopied(t *testing.T) {
	users := MustBuild(Entity().ID("name").Name("users").Prop("bestFriend", Ref("users")))

	out, err := users.Normalize(map[string]any{"name": "Jack", "bestFriend": nil})
	require.NoError(t, err)

	assert.Equal(t, Record{"name": "Jack", "bestFriend": nil}, out.Entities["users"]["Jack"])
}

func TestEntitySchema_Deterministic(t *testing.T) {
	posts := MustBuild(Entity().ID("id").Name("posts"))
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("posts", ArrayValues(posts)).
		Prop("bestFriend", Ref("users")))

	input := map[string]any{
		"name":       "Jack",
		"posts":      []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		"bestFriend": map[string]any{"name": "Jill", "posts": []any{map[string]any{"id": 3}}},
	}

	first, err := users.Normalize(input)
	require.NoError(t, err)
	second, err := users.Normalize(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEntitySchema_DoesNotMutateInput(t *testing.T) {
	users := MustBuild(Entity().ID("name").Name("users"))
	posts := MustBuild(Entity().ID("id").Name("posts").Prop("author", users))

	input := map[string]any{"id": 1, "author": map[string]any{"name": "Jack"}}
	_, err := posts.Normalize(input)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"id": 1, "author": map[string]any{"name": "Jack"}}, input)
}

func TestEntitySchema_MutualRecursion(t *testing.T) {
	// posts only knows users by name; the name resolves through the
	// enclosing users schema at normalization time.
	posts := MustBuild(Entity().ID("id").Name("posts").Prop("author", Ref("users")))
	users := MustBuild(Entity().
		ID("name").
		Name("users").
		Prop("posts", ArrayValues(posts)))

	out, err := users.Normalize(map[string]any{
		"name": "Jack",
		"posts": []any{
			map[string]any{
				"id":     1,
				"author": map[string]any{"name": "Jill", "posts": []any{}},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, Entities{
		"users": {
			"Jack": {"name": "Jack", "posts": []string{"1"}},
			"Jill": {"name": "Jill", "posts": []string{}},
		},
		"posts": {
			"1": {"id": 1, "author": "Jill"},
		},
	}, out.Entities)
}

func TestEntitySchema_UnresolvedSchema(t *testing.T) {
	posts := MustBuild(Entity().ID("id").Name("posts").Prop("author", Ref("users")))

	t.Run("absent property is not visited", func(t *testing.T) {
		out, err := posts.Normalize(map[string]any{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, "1", out.Result)
	})

	t.Run("present property fails", func(t *testing.T) {
		_, err := posts.Normalize(map[string]any{"id": 1, "author": map[string]any{"name": "Jack"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnresolvedSchema))

		var unresolved *UnresolvedSchemaError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, "users", unresolved.Name)
		assert.Equal(t, "posts", unresolved.Schema)
		assert.Equal(t, "author", unresolved.Field)
		assert.Equal(t, `schema: unresolved schema "users" referenced by posts.author`, err.Error())
	})

	t.Run("first field in order wins", func(t *testing.T) {
		s := MustBuild(Entity().ID("id").Name("things").
			Prop("b", Ref("bees")).
			Prop("a", Ref("ants")))

		_, err := s.Normalize(map[string]any{"id": 1, "a": map[string]any{}, "b": map[string]any{}})
		var unresolved *UnresolvedSchemaError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, "ants", unresolved.Name)
	})
}

func TestEntitySchema_TypeMismatch(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	_, err := items.Normalize("not an object")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Equal(t, "schema: items expects object input, got scalar", err.Error())
}

func TestEntitySchema_MissingID(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	_, err := items.Normalize(map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestEntitySchema_MergeConflict(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	_, err := items.NormalizeMany([]any{
		map[string]any{"id": 1, "tags": []any{"a"}},
		map[string]any{"id": 1, "tags": map[string]any{"x": 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, merge.ErrConflict))

	var conflict *merge.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"items", "1", "tags"}, conflict.Path)
}

func TestEntitySchema_LastWriteWins(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	out, err := items.NormalizeMany([]any{
		map[string]any{"id": 1, "title": "first", "draft": true},
		map[string]any{"id": 1, "title": "second"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "1"}, out.Result)
	assert.Equal(t, Record{"id": 1, "title": "second", "draft": true}, out.Entities["items"]["1"])
}

type testHolderKey struct{}

func TestEntitySchema_IDStrategies(t *testing.T) {
	test := map[string]any{"foo": "baz", "bar": "qux"}

	t.Run("computed id", func(t *testing.T) {
		tests := MustBuild(Entity().
			Name("tests").
			ComputeID(func(input, _ Record, _ string) (string, error) {
				return input["foo"].(string) + input["bar"].(string), nil
			}))

		out, err := tests.Normalize(test)
		require.NoError(t, err)
		assert.Equal(t, &Output{
			Result:   "bazqux",
			Entities: Entities{"tests": {"bazqux": {"foo": "baz", "bar": "qux"}}},
		}, out)
	})

	t.Run("id from parent", func(t *testing.T) {
		tests := MustBuild(Entity().
			Name("tests").
			ComputeID(func(input, parent Record, _ string) (string, error) {
				if id, ok := parent["id"]; ok {
					return FormatID(id) + input["foo"].(string), nil
				}
				return input["foo"].(string), nil
			}))
		holders := MustBuild(Entity().
			Name("holders").
			ID("id").
			Prop("a", Ref("tests")).
			Prop("b", Ref("tests")).
			Define(tests))

		out, err := holders.Normalize(map[string]any{"id": 42, "a": test, "b": test})
		require.NoError(t, err)
		assert.Equal(t, &Output{
			Result: "42",
			Entities: Entities{
				"holders": {"42": {"id": 42, "a": "42baz", "b": "42baz"}},
				"tests":   {"42baz": {"foo": "baz", "bar": "qux"}},
			},
		}, out)
	})

	t.Run("id from key", func(t *testing.T) {
		tests := MustBuild(Entity().
			Name("tests").
			ComputeID(func(input, _ Record, key string) (string, error) {
				return key + input["foo"].(string), nil
			}))
		holders := MustBuild(Entity().
			Name("holders").
			ID("id").
			Prop("a", Ref("tests")).
			Prop("b", Ref("tests")).
			Define(tests))

		out, err := holders.Normalize(map[string]any{"id": 42, "a": test, "b": test})
		require.NoError(t, err)
		assert.Equal(t, &Output{
			Result: "42",
			Entities: Entities{
				"holders": {"42": {"id": 42, "a": "abaz", "b": "bbaz"}},
				"tests": {
					"abaz": {"foo": "baz", "bar": "qux"},
					"bbaz": {"foo": "baz", "bar": "qux"},
				},
			},
		}, out)
	})

	t.Run("id function errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		tests := MustBuild(Entity().
			Name("tests").
			ComputeID(func(Record, Record, string) (string, error) { return "", boom }))

		_, err := tests.Normalize(test)
		assert.Same(t, boom, err)
	})
}

func TestEntitySchema_ProcessStrategy(t *testing.T) {
	// Comments are stored with the id of the post they were reached from.
	withPost := func(input any, parent Record, _ string) (any, error) {
		in := input.(map[string]any)
		out := make(map[string]any, len(in)+1)
		for k, v := range in {
			out[k] = v
		}
		if parent != nil {
			out["postId"] = parent["id"]
		}
		return out, nil
	}

	comments := MustBuild(Entity(withPost).ID("id").Name("comments"))
	posts := MustBuild(Entity().ID("id").Name("posts").Prop("comments", ArrayValues(comments)))

	out, err := posts.Normalize(map[string]any{
		"id":       "p1",
		"comments": []any{map[string]any{"id": "c1"}, map[string]any{"id": "c2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, Record{"id": "c1", "postId": "p1"}, out.Entities["comments"]["c1"])
	assert.Equal(t, Record{"id": "c2", "postId": "p1"}, out.Entities["comments"]["c2"])
	assert.Equal(t, []string{"c1", "c2"}, out.Entities["posts"]["p1"]["comments"])
}

func TestEntitySchema_ProcessRunsBeforeTraversal(t *testing.T) {
	// Raw input nests the author under "meta"; processing lifts it.
	lift := func(input any, _ Record, _ string) (any, error) {
		in := input.(map[string]any)
		meta := in["meta"].(map[string]any)
		return map[string]any{"id": in["id"], "author": meta["author"]}, nil
	}

	users := MustBuild(Entity().ID("name").Name("users"))
	posts := MustBuild(Entity(lift).ID("id").Name("posts").Prop("author", users))

	out, err := posts.Normalize(map[string]any{
		"id":   7,
		"meta": map[string]any{"author": map[string]any{"name": "Jack"}},
	})
	require.NoError(t, err)

	assert.Equal(t, Record{"id": 7, "author": "Jack"}, out.Entities["posts"]["7"])
	assert.Contains(t, out.Entities["users"], "Jack")
}

func TestEntitySchema_ProcessErrors(t *testing.T) {
	boom := errors.New("cannot process")
	items := MustBuild(Entity(func(any, Record, string) (any, error) { return nil, boom }).ID("id").Name("items"))

	_, err := items.Normalize(map[string]any{"id": 1})
	assert.Same(t, boom, err)

	scalar := MustBuild(Entity(func(any, Record, string) (any, error) { return 5, nil }).ID("id").Name("items"))
	_, err = scalar.Normalize(map[string]any{"id": 1})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEntitySchema_NormalizeWith(t *testing.T) {
	tests := MustBuild(Entity().
		Name("tests").
		ComputeID(func(input, parent Record, key string) (string, error) {
			return FormatID(parent["id"]) + "/" + key, nil
		}))

	out, err := tests.NormalizeWith(map[string]any{"foo": "baz"}, Record{"id": 9}, "slot")
	require.NoError(t, err)
	assert.Equal(t, "9/slot", out.Result)
}

func TestEntitySchema_NormalizeMany(t *testing.T) {
	items := MustBuild(Entity().ID("id").Name("items"))

	t.Run("array", func(t *testing.T) {
		out, err := items.NormalizeMany([]any{map[string]any{"id": 2}, map[string]any{"id": 1}})
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, out.Result)
		assert.Len(t, out.Entities["items"], 2)
	})

	t.Run("object", func(t *testing.T) {
		out, err := items.NormalizeMany(map[string]any{"x": map[string]any{"id": 1}})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"x": "1"}, out.Result)
	})

	t.Run("scalar", func(t *testing.T) {
		_, err := items.NormalizeMany(3)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestFormatID(t *testing.T) {
	var key testHolderKey

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "Jack", want: "Jack"},
		{name: "int", value: 42, want: "42"},
		{name: "int64", value: int64(-7), want: "-7"},
		{name: "uint8", value: uint8(9), want: "9"},
		{name: "whole float", value: 1.0, want: "1"},
		{name: "fractional float", value: 1.5, want: "1.5"},
		{name: "float32", value: float32(2.25), want: "2.25"},
		{name: "bool", value: true, want: "true"},
		{name: "struct", value: key, want: "{}"},
		{name: "json number", value: json.Number("12.50"), want: "12.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatID(tt.value))
		})
	}
}
