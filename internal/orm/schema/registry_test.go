package schema

import (
	"reflect"
	"testing"
)

func TestMetamodel(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		metamodel := NewMetamodel()
		entity := &EntityType{Name: "Post", Table: "posts", GoType: reflect.TypeOf(struct{ ID int }{})}

		if err := metamodel.Register(entity); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		retrieved, exists := metamodel.EntityNamed("Post")
		if !exists || retrieved != entity {
			t.Error("entity should be registered by name")
		}

		retrieved, exists = metamodel.Entity(reflect.PointerTo(entity.GoType))
		if !exists || retrieved != entity {
			t.Error("pointer types should resolve to the entity")
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		metamodel := NewMetamodel()
		metamodel.Register(&EntityType{Name: "Post", Table: "posts", GoType: reflect.TypeOf(struct{ A int }{})})

		err := metamodel.Register(&EntityType{Name: "Post", Table: "other", GoType: reflect.TypeOf(struct{ B int }{})})
		if err == nil {
			t.Error("expected error for duplicate entity name")
		}

		err = metamodel.Register(&EntityType{Name: "Other", Table: "posts", GoType: reflect.TypeOf(struct{ C int }{})})
		if err == nil {
			t.Error("expected error for duplicate table")
		}
	})

	t.Run("entities are sorted by name", func(t *testing.T) {
		metamodel := NewMetamodel()
		for i, name := range []string{"User", "Comment", "Post"} {
			typ := reflect.StructOf([]reflect.StructField{{Name: "F" + name, Type: reflect.TypeOf(i)}})
			if err := metamodel.Register(&EntityType{Name: name, Table: name, GoType: typ}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		var names []string
		for _, e := range metamodel.Entities() {
			names = append(names, e.Name)
		}
		if !reflect.DeepEqual(names, []string{"Comment", "Post", "User"}) {
			t.Errorf("unexpected order %v", names)
		}
		if len(metamodel.Types()) != 3 {
			t.Errorf("expected 3 types, got %d", len(metamodel.Types()))
		}
	})
}
