package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mickamy/elucify/internal/naming"
)

// OrmImportPath is the import path of the runtime package whose Model type
// can be embedded to contribute a primary key.
const OrmImportPath = "github.com/mickamy/elucify/orm"

const directivePrefix = "//elucify:"

// FieldInfo holds parsed metadata for one struct field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "ID"
	Column     string // DB column name from `db:"id"` tag
	GoType     string // Go type as string, e.g. "int", "string", "time.Time"
	PrimaryKey bool   // true if tag contains "primaryKey"
	CreatedAt  bool   // auto-set on insert when zero
	UpdatedAt  bool   // auto-set on insert and update
	Unique     bool   // UNIQUE constraint, from `db:",unique"`
	Foreign    string // referenced model name from `foreign:"User"`
	OnDelete   string // referential action from `foreign:"User,on_delete:cascade"`
}

// RelationInfo holds parsed metadata for a `rel` tagged field.
type RelationInfo struct {
	FieldName        string // "Posts"
	TargetType       string // "Post"
	TargetImportPath string // empty for same-package targets
	RelType          string // "has_many", "has_one", "belongs_to", "many_to_many"
	ForeignKey       string // "user_id"
	IsPointer        bool   // *Post
	JoinTable        string // many_to_many only
	References       string // many_to_many only
}

// StructInfo holds parsed metadata for the target struct.
type StructInfo struct {
	Name      string         // Go struct name, e.g. "User"
	Package   string         // Package name, e.g. "model"
	File      string         // base name of the file declaring the struct
	Fields    []FieldInfo    // Non-skipped db fields
	Relations []RelationInfo // rel tagged fields
	TableName string         // from the model directive or inferred from Name
	Related   bool           // //elucify:related present
}

// PrimaryKeyField returns the primary key field, or an error if none or
// multiple are defined.
func (s *StructInfo) PrimaryKeyField() (*FieldInfo, error) {
	var pk *FieldInfo
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("multiple primary keys: %s and %s", pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// ForeignFields returns the fields carrying a foreign tag.
func (s *StructInfo) ForeignFields() []FieldInfo {
	return filterFields(s.Fields, func(f FieldInfo) bool { return f.Foreign != "" })
}

// Parse reads the Go file at path and returns StructInfo for every struct
// annotated with //elucify:model.
func Parse(filePath string) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	imports := importMap(file)
	base := filepath.Base(filePath)
	var infos []*StructInfo
	var parseErr error

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			directives := parseDirectives(doc)
			modelOpts, isModel := directives["model"]
			if !isModel {
				continue
			}

			fields, relations, err := parseStructFields(st, imports)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("%s: %w", ts.Name.Name, err)
			}

			table := modelOpts["table"]
			if table == "" {
				table = naming.TableName(ts.Name.Name)
			}
			_, related := directives["related"]

			infos = append(infos, &StructInfo{
				Name:      ts.Name.Name,
				Package:   pkg,
				File:      base,
				Fields:    fields,
				Relations: relations,
				TableName: table,
				Related:   related,
			})
		}
	}

	if parseErr != nil {
		return nil, parseErr
	}
	return infos, nil
}

// ParseDir parses every Go source file of the package in dir, skipping tests
// and previously generated files.
func ParseDir(dir string) ([]*StructInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_gen.go") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var infos []*StructInfo
	for _, name := range names {
		fileInfos, err := Parse(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		infos = append(infos, fileInfos...)
	}
	return infos, nil
}

// parseDirectives collects //elucify:<name> key=value directives from a doc
// comment group.
func parseDirectives(doc *ast.CommentGroup) map[string]map[string]string {
	out := make(map[string]map[string]string)
	if doc == nil {
		return out
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(c.Text, directivePrefix))
		if len(fields) == 0 {
			continue
		}
		opts := make(map[string]string, len(fields)-1)
		for _, kv := range fields[1:] {
			k, v, _ := strings.Cut(kv, "=")
			if unquoted, err := strconv.Unquote(v); err == nil {
				v = unquoted
			}
			opts[k] = v
		}
		out[fields[0]] = opts
	}
	return out
}

// parseStructFields extracts db fields and relations from an AST struct type.
func parseStructFields(st *ast.StructType, imports map[string]string) ([]FieldInfo, []RelationInfo, error) {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	var relations []RelationInfo
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			if isOrmModel(field.Type, imports) {
				fields = append(fields, FieldInfo{Name: "ID", Column: "id", GoType: "int32", PrimaryKey: true})
			}
			continue // other embedded fields are skipped
		}

		if rel, ok, err := parseRelation(field, imports); err != nil {
			return nil, nil, err
		} else if ok {
			relations = append(relations, rel)
			continue
		}

		fi, skip := parseField(field)
		if skip {
			continue
		}
		fields = append(fields, fi)
	}
	return fields, relations, nil
}

func parseField(field *ast.Field) (FieldInfo, bool) {
	name := field.Names[0].Name

	// Skip unexported fields.
	if !field.Names[0].IsExported() {
		return FieldInfo{}, true
	}

	goType := typeToString(field.Type)

	// Defaults: column inferred from field name, ID field is primary key.
	column := naming.CamelToSnake(name)
	fi := FieldInfo{
		Name:       name,
		GoType:     goType,
		PrimaryKey: name == "ID",
		CreatedAt:  name == "CreatedAt" && isTimeType(goType),
		UpdatedAt:  name == "UpdatedAt" && isTimeType(goType),
	}

	if field.Tag != nil {
		tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
		if dbTag, ok := tag.Lookup("db"); ok {
			if dbTag == "-" {
				return FieldInfo{}, true // explicitly skipped
			}
			parts := strings.Split(dbTag, ",")
			if parts[0] != "" {
				column = parts[0]
			}
			for _, opt := range parts[1:] {
				switch opt {
				case "primaryKey":
					fi.PrimaryKey = true
				case "createdAt":
					fi.CreatedAt = true
				case "updatedAt":
					fi.UpdatedAt = true
				case "unique":
					fi.Unique = true
				}
			}
		}
		if foreign, ok := tag.Lookup("foreign"); ok {
			parts := strings.Split(foreign, ",")
			fi.Foreign = strings.TrimSpace(parts[0])
			for _, opt := range parts[1:] {
				if k, v, ok := strings.Cut(opt, ":"); ok && k == "on_delete" {
					fi.OnDelete = strings.ToUpper(v)
				}
			}
		}
	}

	fi.Column = column
	return fi, false
}

// parseRelation reports whether field carries a rel tag and, if so, returns
// its RelationInfo.
func parseRelation(field *ast.Field, imports map[string]string) (RelationInfo, bool, error) {
	if field.Tag == nil {
		return RelationInfo{}, false, nil
	}
	tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
	relTag, ok := tag.Lookup("rel")
	if !ok {
		return RelationInfo{}, false, nil
	}

	name := field.Names[0].Name
	parts := strings.Split(relTag, ",")
	rel := RelationInfo{FieldName: name, RelType: parts[0]}
	switch rel.RelType {
	case "has_many", "has_one", "belongs_to", "many_to_many":
	default:
		return RelationInfo{}, false, fmt.Errorf("field %s: unknown relation type %q", name, rel.RelType)
	}
	for _, opt := range parts[1:] {
		k, v, _ := strings.Cut(opt, ":")
		switch k {
		case "foreign_key":
			rel.ForeignKey = v
		case "join_table":
			rel.JoinTable = v
		case "references":
			rel.References = v
		}
	}
	if rel.ForeignKey == "" {
		return RelationInfo{}, false, fmt.Errorf("field %s: relation requires foreign_key", name)
	}
	if rel.RelType == "many_to_many" && (rel.JoinTable == "" || rel.References == "") {
		return RelationInfo{}, false, fmt.Errorf("field %s: many_to_many requires join_table and references", name)
	}

	goType := typeToString(field.Type)
	goType = strings.TrimPrefix(goType, "[]")
	if strings.HasPrefix(goType, "*") {
		rel.IsPointer = true
		goType = goType[1:]
	}
	if alias, typ, ok := strings.Cut(goType, "."); ok {
		path, known := imports[alias]
		if !known {
			return RelationInfo{}, false, fmt.Errorf("field %s: unknown package %q", name, alias)
		}
		rel.TargetImportPath = path
		goType = typ
	}
	rel.TargetType = goType
	return rel, true, nil
}

// importMap maps the local name of every import in file to its path.
func importMap(file *ast.File) map[string]string {
	m := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		m[name] = path
	}
	return m
}

func isOrmModel(expr ast.Expr, imports map[string]string) bool {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Model" {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && imports[pkg.Name] == OrmImportPath
}

func isTimeType(goType string) bool {
	return goType == "time.Time" || goType == "*time.Time"
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.BasicLit:
		return t.Value
	default:
		return fmt.Sprintf("%T", expr)
	}
}
