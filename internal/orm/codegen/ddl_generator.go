package codegen

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// DDLGenerator generates DDL statements from mapped entities
type DDLGenerator struct {
	dialect    dialect.Dialect
	typeMapper *TypeMapper
}

// NewDDLGenerator creates a new DDL generator for a dialect
func NewDDLGenerator(d dialect.Dialect) *DDLGenerator {
	return &DDLGenerator{
		dialect:    d,
		typeMapper: NewTypeMapper(d),
	}
}

// GenerateCreateTable generates a CREATE TABLE statement for an entity
func (g *DDLGenerator) GenerateCreateTable(entity *schema.EntityType) (string, error) {
	if entity == nil {
		return "", fmt.Errorf("entity cannot be nil")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", g.dialect.QuoteIdentifier(entity.Table)))

	// A single key column carries an inline PRIMARY KEY; composite keys get a
	// table constraint
	inlineKey := len(entity.Key) == 1

	defs := make([]string, 0, len(entity.Columns)+1)
	for _, column := range entity.Columns {
		def, err := g.generateColumnDefinition(column, inlineKey)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", column.Name, err)
		}
		defs = append(defs, def)
	}

	if len(entity.Key) > 1 {
		keys := make([]string, len(entity.Key))
		for i, c := range entity.Key {
			keys[i] = g.dialect.QuoteIdentifier(c.Name)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	for i, def := range defs {
		b.WriteString("  ")
		b.WriteString(def)
		if i < len(defs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString(");")

	return b.String(), nil
}

// generateColumnDefinition generates a column definition
func (g *DDLGenerator) generateColumnDefinition(column *schema.Column, inlineKey bool) (string, error) {
	parts := []string{g.dialect.QuoteIdentifier(column.Name)}

	columnType, err := g.typeMapper.MapType(column)
	if err != nil {
		return "", fmt.Errorf("mapping type: %w", err)
	}
	parts = append(parts, columnType)

	if column.PrimaryKey && inlineKey {
		parts = append(parts, "PRIMARY KEY")
		if column.Generated && g.dialect.Name() == "sqlite" {
			parts = append(parts, "AUTOINCREMENT")
		}
	} else {
		parts = append(parts, g.typeMapper.MapNullability(column))
	}

	if ref := column.Reference; ref != nil {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)",
			g.dialect.QuoteIdentifier(ref.Table),
			g.dialect.QuoteIdentifier(ref.Column)))
	}

	return strings.Join(parts, " "), nil
}

// GenerateSchema generates CREATE TABLE statements for every entity of the
// metamodel. Referenced tables are created before the tables referring to
// them.
func (g *DDLGenerator) GenerateSchema(metamodel *schema.Metamodel) ([]string, error) {
	ordered := dependencyOrder(metamodel)

	statements := make([]string, 0, len(ordered))
	for _, entity := range ordered {
		stmt, err := g.GenerateCreateTable(entity)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entity.Name, err)
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// dependencyOrder sorts entities so that reference targets come first.
// Cycles are broken at the first entity revisited.
func dependencyOrder(metamodel *schema.Metamodel) []*schema.EntityType {
	var ordered []*schema.EntityType
	visited := make(map[*schema.EntityType]bool)

	var visit func(e *schema.EntityType)
	visit = func(e *schema.EntityType) {
		if visited[e] {
			return
		}
		visited[e] = true
		for _, c := range e.Columns {
			if c.Reference == nil {
				continue
			}
			if target, ok := metamodel.Entity(c.Reference.Target); ok {
				visit(target)
			}
		}
		ordered = append(ordered, e)
	}

	for _, e := range metamodel.Entities() {
		visit(e)
	}
	return ordered
}
