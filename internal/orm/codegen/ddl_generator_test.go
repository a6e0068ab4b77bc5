package codegen

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

type author struct {
	_    struct{} `persist:"entity:Author,table:authors"`
	ID   int64    `persist:"id,generated"`
	Name string
}

type article struct {
	_         struct{} `persist:"entity:Article"`
	ID        int64    `persist:"id,generated"`
	Title     string
	Author    *author
	Published *time.Time
}

type tagKey struct {
	ArticleID int64
	Tag       string
}

type articleTag struct {
	Key tagKey `persist:"embeddedid"`
}

func introspect(t *testing.T, types ...any) *schema.Metamodel {
	t.Helper()
	reflected := make([]reflect.Type, len(types))
	for i, v := range types {
		reflected[i] = reflect.TypeOf(v)
	}
	metamodel, err := schema.Introspect(reflected...)
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	return metamodel
}

func TestDDLGenerator_GenerateCreateTable_Postgres(t *testing.T) {
	metamodel := introspect(t, author{}, article{})
	gen := NewDDLGenerator(dialect.Postgres)

	entity, _ := metamodel.EntityNamed("Article")
	result, err := gen.GenerateCreateTable(entity)
	if err != nil {
		t.Fatalf("GenerateCreateTable() error = %v", err)
	}

	expected := []string{
		`CREATE TABLE IF NOT EXISTS "article"`,
		`"id" BIGSERIAL PRIMARY KEY`,
		`"title" TEXT NOT NULL`,
		`"author_id" BIGINT NULL REFERENCES "authors" ("id")`,
		`"published" TIMESTAMP WITH TIME ZONE NULL`,
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
		}
	}
}

func TestDDLGenerator_GenerateCreateTable_SQLite(t *testing.T) {
	metamodel := introspect(t, author{}, articleTag{})
	gen := NewDDLGenerator(dialect.SQLite)

	entity, _ := metamodel.EntityNamed("Author")
	result, err := gen.GenerateCreateTable(entity)
	if err != nil {
		t.Fatalf("GenerateCreateTable() error = %v", err)
	}
	if !strings.Contains(result, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`) {
		t.Errorf("expected autoincrement key\nGot:\n%s", result)
	}

	entity, _ = metamodel.EntityNamed("articleTag")
	result, err = gen.GenerateCreateTable(entity)
	if err != nil {
		t.Fatalf("GenerateCreateTable() error = %v", err)
	}

	expected := []string{
		`"article_id" INTEGER NOT NULL`,
		`"tag" TEXT NOT NULL`,
		`PRIMARY KEY ("article_id", "tag")`,
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
		}
	}
}

func TestDDLGenerator_GenerateCreateTable_Nil(t *testing.T) {
	gen := NewDDLGenerator(dialect.Postgres)
	if _, err := gen.GenerateCreateTable(nil); err == nil {
		t.Error("expected error for nil entity")
	}
}

func TestDDLGenerator_GenerateSchema_DependencyOrder(t *testing.T) {
	metamodel := introspect(t, article{}, author{})
	gen := NewDDLGenerator(dialect.SQLite)

	statements, err := gen.GenerateSchema(metamodel)
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(statements))
	}
	if !strings.Contains(statements[0], `"authors"`) {
		t.Errorf("referenced table should be created first, got:\n%s", statements[0])
	}
}
