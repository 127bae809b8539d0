package gen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mickamy/elucify/orm"
)

// reference is one foreign key constraint of a table.
type reference struct {
	Column       string
	TargetTable  string
	TargetColumn string
	OnDelete     string
	target       *StructInfo
}

// RenderSchema returns one CREATE TABLE statement per model, ordered so that
// every referenced table is created before the tables referencing it.
// Statements carry no trailing semicolon.
func RenderSchema(infos []*StructInfo, dialect string) ([]string, error) {
	d, err := orm.DialectFor(dialect)
	if err != nil {
		return nil, err
	}
	if err := Validate(infos); err != nil {
		return nil, err
	}

	ordered, err := sortByDependencies(infos)
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(ordered))
	for _, info := range ordered {
		stmts = append(stmts, createTable(info, d, infos))
	}
	return stmts, nil
}

// RenderMigration returns a goose SQL migration creating the tables of infos
// on the way up and dropping them in reverse order on the way down.
func RenderMigration(infos []*StructInfo, dialect string) ([]byte, error) {
	stmts, err := RenderSchema(infos, dialect)
	if err != nil {
		return nil, err
	}
	ordered, err := sortByDependencies(infos)
	if err != nil {
		return nil, err
	}
	d, _ := orm.DialectFor(dialect)

	var buf bytes.Buffer
	buf.WriteString("-- Code generated by elucify; DO NOT EDIT.\n\n")
	buf.WriteString("-- +goose Up\n")
	for _, stmt := range stmts {
		buf.WriteString(stmt)
		buf.WriteString(";\n\n")
	}
	buf.WriteString("-- +goose Down\n")
	for i := len(ordered) - 1; i >= 0; i-- {
		fmt.Fprintf(&buf, "DROP TABLE IF EXISTS %s;\n", d.QuoteIdent(ordered[i].TableName))
	}
	return buf.Bytes(), nil
}

func createTable(info *StructInfo, d orm.Dialect, all []*StructInfo) string {
	qi := d.QuoteIdent
	lines := make([]string, 0, len(info.Fields)+2)
	for _, f := range info.Fields {
		lines = append(lines, "  "+qi(f.Column)+" "+columnDefinition(f, d.Name()))
	}
	for _, ref := range references(info, all) {
		line := fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s (%s)",
			qi(ref.Column), qi(ref.TargetTable), qi(ref.TargetColumn))
		if ref.OnDelete != "" {
			line += " ON DELETE " + ref.OnDelete
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", qi(info.TableName), strings.Join(lines, ",\n"))
}

func columnDefinition(f FieldInfo, dialect string) string {
	goType := strings.TrimPrefix(f.GoType, "*")
	nullable := strings.HasPrefix(f.GoType, "*")

	if f.PrimaryKey && isIntType(goType) {
		wide := goType == "int" || goType == "int64" || goType == "uint" || goType == "uint64"
		switch dialect {
		case "postgres":
			if wide {
				return "BIGSERIAL PRIMARY KEY"
			}
			return "SERIAL PRIMARY KEY"
		case "mysql":
			return sqlType(goType, dialect) + " NOT NULL AUTO_INCREMENT PRIMARY KEY"
		default:
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	}

	def := sqlType(goType, dialect)
	if f.PrimaryKey {
		return def + " NOT NULL PRIMARY KEY"
	}
	if !nullable {
		def += " NOT NULL"
	}
	if f.Unique {
		def += " UNIQUE"
	}
	return def
}

func sqlType(goType, dialect string) string {
	switch goType {
	case "int", "int64", "uint", "uint64":
		if dialect == "sqlite" {
			return "INTEGER"
		}
		return "BIGINT"
	case "int32", "uint32":
		if dialect == "mysql" {
			return "INT"
		}
		return "INTEGER"
	case "int8", "int16", "uint8", "uint16":
		if dialect == "sqlite" {
			return "INTEGER"
		}
		return "SMALLINT"
	case "float32":
		return "REAL"
	case "float64":
		switch dialect {
		case "postgres":
			return "DOUBLE PRECISION"
		case "mysql":
			return "DOUBLE"
		default:
			return "REAL"
		}
	case "bool":
		return "BOOLEAN"
	case "string":
		if dialect == "mysql" {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case "[]byte":
		if dialect == "postgres" {
			return "BYTEA"
		}
		return "BLOB"
	case "time.Time":
		switch dialect {
		case "postgres":
			return "TIMESTAMPTZ"
		case "mysql":
			return "DATETIME(6)"
		default:
			return "DATETIME"
		}
	default:
		return "TEXT"
	}
}

// references collects the foreign key constraints of info: foreign tagged
// fields and belongs_to relations whose target is one of all.
func references(info *StructInfo, all []*StructInfo) []reference {
	var refs []reference
	seen := make(map[string]bool)
	for _, f := range info.ForeignFields() {
		target := findStructInfo(all, f.Foreign)
		if target == nil {
			continue
		}
		pk, err := target.PrimaryKeyField()
		if err != nil {
			continue
		}
		seen[f.Column] = true
		refs = append(refs, reference{
			Column:       f.Column,
			TargetTable:  target.TableName,
			TargetColumn: pk.Column,
			OnDelete:     f.OnDelete,
			target:       target,
		})
	}
	for _, rel := range info.Relations {
		if rel.RelType != "belongs_to" || rel.TargetImportPath != "" || seen[rel.ForeignKey] {
			continue
		}
		target := findStructInfo(all, rel.TargetType)
		if target == nil || lookupField(info, rel.ForeignKey) == nil {
			continue
		}
		pk, err := target.PrimaryKeyField()
		if err != nil {
			continue
		}
		seen[rel.ForeignKey] = true
		refs = append(refs, reference{
			Column:       rel.ForeignKey,
			TargetTable:  target.TableName,
			TargetColumn: pk.Column,
			target:       target,
		})
	}
	return refs
}

// sortByDependencies orders infos so that referenced tables come first,
// keeping the input order among independent tables. Self references do not
// count as dependencies.
func sortByDependencies(infos []*StructInfo) ([]*StructInfo, error) {
	deps := make(map[*StructInfo][]*StructInfo, len(infos))
	for _, info := range infos {
		for _, ref := range references(info, infos) {
			if ref.target != info {
				deps[info] = append(deps[info], ref.target)
			}
		}
	}

	ordered := make([]*StructInfo, 0, len(infos))
	done := make(map[*StructInfo]bool, len(infos))
	for len(ordered) < len(infos) {
		progressed := false
		for _, info := range infos {
			if done[info] {
				continue
			}
			ready := true
			for _, dep := range deps[info] {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				done[info] = true
				ordered = append(ordered, info)
				progressed = true
			}
		}
		if !progressed {
			var cycle []string
			for _, info := range infos {
				if !done[info] {
					cycle = append(cycle, info.TableName)
				}
			}
			return nil, fmt.Errorf("dependency cycle among tables: %s", strings.Join(cycle, ", "))
		}
	}
	return ordered, nil
}
