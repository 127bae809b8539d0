package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strings"
	"text/template"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/elucify/internal/naming"
)

// RenderOption controls the output of RenderFile.
type RenderOption struct {
	DestPkg      string        // output package name (empty = same as source)
	SourceImport string        // import path for source package (required when DestPkg is set)
	PeerInfos    []*StructInfo // other models in the same package (foreign targets, join scans)
}

// Render generates the Go source code for a single StructInfo.
// The returned bytes are formatted by gofmt.
func Render(info *StructInfo) ([]byte, error) {
	return RenderFile([]*StructInfo{info}, RenderOption{})
}

// RenderFile generates a single Go source file for all given StructInfos.
// The returned bytes are formatted by gofmt.
func RenderFile(infos []*StructInfo, opt RenderOption) ([]byte, error) {
	if len(infos) == 0 {
		return nil, errors.New("no structs to render")
	}

	pkg := opt.DestPkg
	if pkg == "" {
		pkg = infos[0].Package
	}

	typePrefix := ""
	if opt.SourceImport != "" {
		// e.g. "github.com/example/model" → "model."
		parts := strings.Split(opt.SourceImport, "/")
		typePrefix = parts[len(parts)-1] + "."
	}

	// allInfos includes both the structs to render and peer structs from the
	// same package. Peers are used for foreign targets and join scan lookups.
	allInfos := mergeInfos(infos, opt.PeerInfos)
	if err := Validate(allInfos); err != nil {
		return nil, err
	}

	structs := make([]templateData, 0, len(infos))
	var allExtraImports []importEntry
	seenImports := make(map[string]bool)

	for _, info := range infos {
		pk, err := info.PrimaryKeyField()
		if err != nil {
			return nil, err
		}

		createdAtFields := filterFields(info.Fields, func(f FieldInfo) bool { return f.CreatedAt })
		updatedAtFields := filterFields(info.Fields, func(f FieldInfo) bool { return f.UpdatedAt })
		hasTimestamps := len(createdAtFields) > 0 || len(updatedAtFields) > 0

		relations, extraImports := buildRelationData(info, pk, typePrefix, opt.SourceImport, opt.DestPkg, allInfos)
		for _, ei := range extraImports {
			if !seenImports[ei.Path] {
				seenImports[ei.Path] = true
				allExtraImports = append(allExtraImports, ei)
			}
		}

		var foreigns []foreignTemplateData
		if info.Related {
			foreigns = buildForeignData(info, typePrefix, allInfos)
		}

		data := templateData{
			TypeName:         typePrefix + info.Name,
			TableName:        info.TableName,
			FactoryName:      factoryName(info, typePrefix),
			PK:               pk,
			Fields:           info.Fields,
			ScanFunc:         unexportedName("scan" + info.Name),
			ColValFunc:       unexportedName(info.Name + "ColumnValuePairs"),
			SetPKFunc:        unexportedName("set" + info.Name + "PK"),
			ColumnsVar:       unexportedName(naming.SnakeToCamel(info.TableName) + "Columns"),
			IsIntPK:          isIntType(pk.GoType),
			Relations:        relations,
			Foreigns:         foreigns,
			SetCreatedAtFunc: unexportedName("set" + info.Name + "CreatedAt"),
			SetUpdatedAtFunc: unexportedName("set" + info.Name + "UpdatedAt"),
			CreatedAtFields:  createdAtFields,
			UpdatedAtFields:  updatedAtFields,
			HasTimestamps:    hasTimestamps,
		}
		structs = append(structs, data)
	}

	fileData := fileTemplateData{
		Package:      pkg,
		SourceImport: opt.SourceImport,
		ExtraImports: allExtraImports,
		Structs:      structs,
	}
	for _, s := range structs {
		if len(s.Relations) > 0 {
			fileData.HasRelations = true
		}
		if len(s.Foreigns) > 0 {
			fileData.HasForeigns = true
		}
		if s.HasTimestamps {
			fileData.HasTimestamps = true
		}
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, fileData); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gofmt: %w", err)
	}
	return src, nil
}

type importEntry struct {
	Alias string // empty means the last path segment is used as-is
	Path  string
}

type fileTemplateData struct {
	Package       string
	SourceImport  string
	HasRelations  bool
	HasForeigns   bool
	HasTimestamps bool
	ExtraImports  []importEntry
	Structs       []templateData
}

type templateData struct {
	TypeName         string
	TableName        string
	FactoryName      string
	PK               *FieldInfo
	Fields           []FieldInfo
	ScanFunc         string
	ColValFunc       string
	SetPKFunc        string
	ColumnsVar       string
	IsIntPK          bool
	Relations        []relationTemplateData
	Foreigns         []foreignTemplateData
	SetCreatedAtFunc string
	SetUpdatedAtFunc string
	CreatedAtFields  []FieldInfo
	UpdatedAtFields  []FieldInfo
	HasTimestamps    bool
}

type relationTemplateData struct {
	FieldName        string // "Posts"
	ParentType       string // "model.User" or "User" (parent struct type)
	TargetType       string // "model.Post" or "Post"
	TargetFactory    string // "Posts"
	ForeignKey       string // "user_id"
	ForeignKeyField  string // "UserID"
	RelType          string // "has_many", "belongs_to", "has_one", or "many_to_many"
	IsPointer        bool   // true if the source field is a pointer (e.g. *UserEmail)
	PreloaderName    string // "preloadUserPosts"
	KeyType          string // Go type for map key ("int")
	ParentPKField    string // "ID"
	TargetPKField    string // "ID"
	TargetPKColumn   string // "id"
	JoinTargetTable  string
	JoinTargetColumn string
	JoinSourceTable  string
	JoinSourceColumn string
	FKIsPointer      bool   // true if the foreign key field is a pointer type (e.g. *string)
	JoinTable        string // many_to_many only: "user_tags"
	References       string // many_to_many only: "tag_id"

	// Join scan support (belongs_to / has_one, same-package only).
	// nil when join scan is not supported (cross-package, has_many, many_to_many).
	JoinScanFields    []FieldInfo // target struct's DB fields
	JoinSelectColumns []string    // target column names for JoinConfig.SelectColumns
	JoinPKGoType      string      // target PK Go type, e.g. "int"
	JoinPKName        string      // target PK Go field name, e.g. "ID"
}

// foreignTemplateData describes one foreign field of a related model.
type foreignTemplateData struct {
	RelName        string // "User" (join name)
	FieldName      string // "UserID"
	Column         string // "user_id"
	FKIsPointer    bool
	KeyType        string // "int32"
	SourceType     string // "model.Credentials"
	SourceTable    string // "credentials"
	SourceFactory  string // "Credentials"
	TargetType     string // "model.User"
	TargetTable    string // "users"
	TargetFactory  string // "Users"
	TargetPKField  string // "ID"
	TargetPKColumn string // "id"
	AccessorName   string // "CredentialsUser"
	LoaderName     string // "LoadCredentialsUsers"
	InverseName    string // "UserCredentials"
}

func (d templateData) NonPKFields() []FieldInfo {
	var fields []FieldInfo
	for _, f := range d.Fields {
		if !f.PrimaryKey {
			fields = append(fields, f)
		}
	}
	return fields
}

func (d templateData) CreatedAtColumns() []string {
	cols := make([]string, len(d.CreatedAtFields))
	for i, f := range d.CreatedAtFields {
		cols[i] = f.Column
	}
	return cols
}

func (d templateData) NeedsRegistration() bool {
	return len(d.Relations) > 0 || len(d.Foreigns) > 0 || d.HasTimestamps
}

var funcMap = template.FuncMap{
	"join": strings.Join,
	"quote": func(s string) string {
		return `"` + s + `"`
	},
	"hasPrefix": strings.HasPrefix,
}

var fileTmpl = template.Must(template.New("gen").Funcs(funcMap).Parse(fileTemplate))

const fileTemplate = `// Code generated by elucify; DO NOT EDIT.
package {{.Package}}

import (
	{{- if or .HasRelations .HasForeigns}}
	"context"
	{{- end}}
	"database/sql"
	{{- if .HasTimestamps}}
	"time"
	{{- end}}

	"github.com/mickamy/elucify/orm"
	{{- if or .HasRelations .HasForeigns}}
	"github.com/mickamy/elucify/scope"
	{{- end}}
	{{- if .SourceImport}}
	"{{.SourceImport}}"
	{{- end}}
	{{- range .ExtraImports}}
	{{- if .Alias}}
	{{.Alias}} "{{.Path}}"
	{{- else}}
	"{{.Path}}"
	{{- end}}
	{{- end}}
)
{{range .Structs}}
// {{.FactoryName}} returns a new Query for the {{.TableName}} table.
func {{.FactoryName}}(db orm.Querier) *orm.Query[{{.TypeName}}] {
	{{- if .NeedsRegistration}}
	q := orm.NewQuery[{{.TypeName}}](
		db, orm.ResolveTableName[{{.TypeName}}]("{{.TableName}}"), {{.ColumnsVar}}, "{{.PK.Column}}",
		{{.ScanFunc}}, {{.ColValFunc}}, {{if .IsIntPK}}{{.SetPKFunc}}{{else}}nil{{end}},
	)
	{{- range .Relations}}
	{{- if ne .RelType "many_to_many"}}
	q.RegisterJoin("{{.FieldName}}", orm.JoinConfig{
		TargetTable: orm.ResolveTableName[{{.TargetType}}]("{{.JoinTargetTable}}"), TargetColumn: "{{.JoinTargetColumn}}",
		SourceTable: orm.ResolveTableName[{{.ParentType}}]("{{.JoinSourceTable}}"), SourceColumn: "{{.JoinSourceColumn}}",
		{{- if .JoinSelectColumns}}
		SelectColumns: []string{ {{- range $i, $c := .JoinSelectColumns}}{{if $i}}, {{end}}{{quote $c}}{{end -}} },
		Alias: "{{.FieldName}}",
		{{- end}}
	})
	{{- end}}
	q.RegisterPreloader("{{.FieldName}}", {{.PreloaderName}})
	{{- end}}
	{{- range .Foreigns}}
	q.RegisterJoin("{{.RelName}}", orm.JoinConfig{
		TargetTable: orm.ResolveTableName[{{.TargetType}}]("{{.TargetTable}}"), TargetColumn: "{{.TargetPKColumn}}",
		SourceTable: orm.ResolveTableName[{{.SourceType}}]("{{.SourceTable}}"), SourceColumn: "{{.Column}}",
	})
	{{- end}}
	{{- if .HasTimestamps}}
	q.RegisterTimestamps(
		{{if .CreatedAtFields}}[]string{ {{- range $i, $c := .CreatedAtColumns}}{{if $i}}, {{end}}{{quote $c}}{{end -}} }{{else}}nil{{end}},
		{{if .CreatedAtFields}}{{.SetCreatedAtFunc}}{{else}}nil{{end}},
		{{if .UpdatedAtFields}}{{.SetUpdatedAtFunc}}{{else}}nil{{end}},
	)
	{{- end}}
	return q
	{{- else}}
	return orm.NewQuery[{{.TypeName}}](
		db, orm.ResolveTableName[{{.TypeName}}]("{{.TableName}}"), {{.ColumnsVar}}, "{{.PK.Column}}",
		{{.ScanFunc}}, {{.ColValFunc}}, {{if .IsIntPK}}{{.SetPKFunc}}{{else}}nil{{end}},
	)
	{{- end}}
}

var {{.ColumnsVar}} = []string{ {{- range $i, $f := .Fields}}{{if $i}}, {{end}}{{quote $f.Column}}{{end -}} }

func {{.ScanFunc}}(rows *sql.Rows) ({{.TypeName}}, error) {
	cols, _ := rows.Columns()
	var v {{.TypeName}}
	{{- range .Relations}}
	{{- if and .JoinScanFields .IsPointer}}
	var joinScan{{.FieldName}}PK sql.Null[{{.JoinPKGoType}}]
	var joinScan{{.FieldName}} {{.TargetType}}
	{{- end}}
	{{- end}}
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		{{- range .Fields}}
		case {{quote .Column}}:
			dest[i] = &v.{{.Name}}
		{{- end}}
		{{- range $rel := .Relations}}
		{{- range $f := $rel.JoinScanFields}}
		{{- if and $rel.IsPointer $f.PrimaryKey}}
		case "{{$rel.FieldName}}__{{$f.Column}}":
			dest[i] = &joinScan{{$rel.FieldName}}PK
		{{- else if $rel.IsPointer}}
		case "{{$rel.FieldName}}__{{$f.Column}}":
			dest[i] = orm.NullDest(&joinScan{{$rel.FieldName}}.{{$f.Name}})
		{{- else}}
		case "{{$rel.FieldName}}__{{$f.Column}}":
			dest[i] = orm.NullDest(&v.{{$rel.FieldName}}.{{$f.Name}})
		{{- end}}
		{{- end}}
		{{- end}}
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	{{- range .Relations}}
	{{- if and .JoinScanFields .IsPointer}}
	if joinScan{{.FieldName}}PK.Valid {
		joinScan{{.FieldName}}.{{.JoinPKName}} = joinScan{{.FieldName}}PK.V
		v.{{.FieldName}} = &joinScan{{.FieldName}}
	}
	{{- end}}
	{{- end}}
	return v, err
}

func {{.ColValFunc}}(v *{{.TypeName}}, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{ {{- range $i, $f := .Fields}}{{if $i}}, {{end}}{{quote $f.Column}}{{end -}} },
			[]any{ {{- range $i, $f := .Fields}}{{if $i}}, {{end}}v.{{$f.Name}}{{end -}} }
	}
	return []string{ {{- range $i, $f := .NonPKFields}}{{if $i}}, {{end}}{{quote $f.Column}}{{end -}} },
		[]any{ {{- range $i, $f := .NonPKFields}}{{if $i}}, {{end}}v.{{$f.Name}}{{end -}} }
}
{{if .IsIntPK}}
func {{.SetPKFunc}}(v *{{.TypeName}}, id int64) {
	v.{{.PK.Name}} = {{.PK.GoType}}(id)
}
{{end}}
{{- if .CreatedAtFields}}
func {{.SetCreatedAtFunc}}(v *{{.TypeName}}, now time.Time) {
	{{- range .CreatedAtFields}}
	{{- if hasPrefix .GoType "*"}}
	if v.{{.Name}} == nil {
		v.{{.Name}} = &now
	}
	{{- else}}
	if v.{{.Name}}.IsZero() {
		v.{{.Name}} = now
	}
	{{- end}}
	{{- end}}
}
{{- end}}
{{- if .UpdatedAtFields}}
func {{.SetUpdatedAtFunc}}(v *{{.TypeName}}, now time.Time) {
	{{- range .UpdatedAtFields}}
	{{- if hasPrefix .GoType "*"}}
	v.{{.Name}} = &now
	{{- else}}
	v.{{.Name}} = now
	{{- end}}
	{{- end}}
}
{{- end}}
{{- range .Relations}}
{{- if eq .RelType "has_many"}}
func {{.PreloaderName}}(ctx context.Context, db orm.Querier, results []{{.ParentType}}) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]{{.KeyType}}, len(results))
	for i := range results {
		ids[i] = results[i].{{.ParentPKField}}
	}
	related, err := {{.TargetFactory}}(db).Scopes(scope.In("{{.ForeignKey}}", ids)).All(ctx)
	if err != nil {
		return err
	}
	byFK := make(map[{{.KeyType}}][]{{.TargetType}})
	for _, r := range related {
		byFK[r.{{.ForeignKeyField}}] = append(byFK[r.{{.ForeignKeyField}}], r)
	}
	for i := range results {
		results[i].{{.FieldName}} = byFK[results[i].{{.ParentPKField}}]
	}
	return nil
}
{{- else if eq .RelType "has_one"}}
func {{.PreloaderName}}(ctx context.Context, db orm.Querier, results []{{.ParentType}}) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]{{.KeyType}}, len(results))
	for i := range results {
		ids[i] = results[i].{{.ParentPKField}}
	}
	related, err := {{.TargetFactory}}(db).Scopes(scope.In("{{.ForeignKey}}", ids)).All(ctx)
	if err != nil {
		return err
	}
	{{- if .IsPointer}}
	byFK := make(map[{{.KeyType}}]*{{.TargetType}})
	for i := range related {
		byFK[related[i].{{.ForeignKeyField}}] = &related[i]
	}
	{{- else}}
	byFK := make(map[{{.KeyType}}]{{.TargetType}})
	for _, r := range related {
		byFK[r.{{.ForeignKeyField}}] = r
	}
	{{- end}}
	for i := range results {
		results[i].{{.FieldName}} = byFK[results[i].{{.ParentPKField}}]
	}
	return nil
}
{{- else if eq .RelType "many_to_many"}}
func {{.PreloaderName}}(ctx context.Context, db orm.Querier, results []{{.ParentType}}) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]{{.KeyType}}, len(results))
	for i := range results {
		ids[i] = results[i].{{.ParentPKField}}
	}
	pairs, err := orm.QueryJoinTable[{{.KeyType}}, {{.KeyType}}](
		ctx, db, "{{.JoinTable}}", "{{.ForeignKey}}", "{{.References}}", ids,
	)
	if err != nil {
		return err
	}
	targetIDs := orm.UniqueTargets(pairs)
	related, err := {{.TargetFactory}}(db).Scopes(scope.In("{{.TargetPKColumn}}", targetIDs)).All(ctx)
	if err != nil {
		return err
	}
	byPK := make(map[{{.KeyType}}]{{.TargetType}})
	for _, r := range related {
		byPK[r.{{.TargetPKField}}] = r
	}
	grouped := orm.GroupBySource(pairs)
	for i := range results {
		tIDs := grouped[results[i].{{.ParentPKField}}]
		items := make([]{{.TargetType}}, 0, len(tIDs))
		for _, tid := range tIDs {
			if v, ok := byPK[tid]; ok {
				items = append(items, v)
			}
		}
		results[i].{{.FieldName}} = items
	}
	return nil
}
{{- else}}
func {{.PreloaderName}}(ctx context.Context, db orm.Querier, results []{{.ParentType}}) error {
	if len(results) == 0 {
		return nil
	}
	{{- if .FKIsPointer}}
	ids := make([]{{.KeyType}}, 0, len(results))
	for i := range results {
		if results[i].{{.ForeignKeyField}} != nil {
			ids = append(ids, *results[i].{{.ForeignKeyField}})
		}
	}
	{{- else}}
	ids := make([]{{.KeyType}}, len(results))
	for i := range results {
		ids[i] = results[i].{{.ForeignKeyField}}
	}
	{{- end}}
	ids = orm.Distinct(ids)
	related, err := {{.TargetFactory}}(db).Scopes(scope.In("{{.TargetPKColumn}}", ids)).All(ctx)
	if err != nil {
		return err
	}
	{{- if .IsPointer}}
	byPK := make(map[{{.KeyType}}]*{{.TargetType}})
	for i := range related {
		byPK[related[i].{{.TargetPKField}}] = &related[i]
	}
	{{- else}}
	byPK := make(map[{{.KeyType}}]{{.TargetType}})
	for _, r := range related {
		byPK[r.{{.TargetPKField}}] = r
	}
	{{- end}}
	for i := range results {
		{{- if .FKIsPointer}}
		if results[i].{{.ForeignKeyField}} != nil {
			results[i].{{.FieldName}} = byPK[*results[i].{{.ForeignKeyField}}]
		}
		{{- else}}
		results[i].{{.FieldName}} = byPK[results[i].{{.ForeignKeyField}}]
		{{- end}}
	}
	return nil
}
{{- end}}
{{- end}}
{{- range .Foreigns}}

// {{.AccessorName}} returns the {{.RelName}} referenced by v.{{.FieldName}}.
// It returns orm.ErrNotFound when the referenced row does not exist.
func {{.AccessorName}}(ctx context.Context, db orm.Querier, v {{.SourceType}}) ({{.TargetType}}, error) {
	{{- if .FKIsPointer}}
	if v.{{.FieldName}} == nil {
		var zero {{.TargetType}}
		return zero, orm.ErrNotFound
	}
	return {{.TargetFactory}}(db).Scopes(scope.Where("{{.TargetPKColumn}} = ?", *v.{{.FieldName}})).First(ctx)
	{{- else}}
	return {{.TargetFactory}}(db).Scopes(scope.Where("{{.TargetPKColumn}} = ?", v.{{.FieldName}})).First(ctx)
	{{- end}}
}

// {{.LoaderName}} loads the rows referenced by {{.FieldName}} for all of rows,
// keyed by primary key. Each referenced row is fetched once.
func {{.LoaderName}}(ctx context.Context, db orm.Querier, rows []{{.SourceType}}) (map[{{.KeyType}}]{{.TargetType}}, error) {
	ids := make([]{{.KeyType}}, 0, len(rows))
	for i := range rows {
		{{- if .FKIsPointer}}
		if rows[i].{{.FieldName}} != nil {
			ids = append(ids, *rows[i].{{.FieldName}})
		}
		{{- else}}
		ids = append(ids, rows[i].{{.FieldName}})
		{{- end}}
	}
	ids = orm.Distinct(ids)
	byPK := make(map[{{.KeyType}}]{{.TargetType}}, len(ids))
	if len(ids) == 0 {
		return byPK, nil
	}
	related, err := {{.TargetFactory}}(db).Scopes(scope.In("{{.TargetPKColumn}}", ids)).All(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range related {
		byPK[r.{{.TargetPKField}}] = r
	}
	return byPK, nil
}

// {{.InverseName}} returns the {{.SourceTable}} rows whose {{.Column}} references v.
func {{.InverseName}}(ctx context.Context, db orm.Querier, v {{.TargetType}}) ([]{{.SourceType}}, error) {
	return {{.SourceFactory}}(db).Scopes(scope.Where("{{.Column}} = ?", v.{{.TargetPKField}})).All(ctx)
}
{{- end}}
{{end}}`

func buildRelationData(info *StructInfo, pk *FieldInfo, typePrefix, sourceImport, destPkg string, allInfos []*StructInfo) ([]relationTemplateData, []importEntry) {
	if len(info.Relations) == 0 {
		return nil, nil
	}

	rels := make([]relationTemplateData, 0, len(info.Relations))
	seen := make(map[string]bool)
	var extraImports []importEntry

	for _, rel := range info.Relations {
		isCrossPkg := rel.TargetImportPath != "" && rel.TargetImportPath != sourceImport

		var targetInfo *StructInfo
		if !isCrossPkg {
			targetInfo = findStructInfo(allInfos, rel.TargetType)
		}

		targetTable := inflection.Plural(naming.CamelToSnake(rel.TargetType))
		targetFactory := naming.SnakeToCamel(targetTable)
		targetPKField, targetPKColumn := "ID", "id" // convention for targets we cannot see
		if targetInfo != nil {
			targetTable = targetInfo.TableName
			targetFactory = factoryName(targetInfo, typePrefix)
			if targetPK, err := targetInfo.PrimaryKeyField(); err == nil {
				targetPKField, targetPKColumn = targetPK.Name, targetPK.Column
			}
		}
		fkField := naming.SnakeToCamel(rel.ForeignKey)

		// Determine type prefix for the target type.
		targetTypePrefix := typePrefix
		if isCrossPkg {
			alias := resolveAlias(rel.TargetImportPath, sourceImport)
			targetTypePrefix = alias + "."
			if !seen[rel.TargetImportPath] {
				seen[rel.TargetImportPath] = true
				parts := strings.Split(rel.TargetImportPath, "/")
				lastSeg := parts[len(parts)-1]
				entry := importEntry{Path: rel.TargetImportPath}
				if alias != lastSeg {
					entry.Alias = alias
				}
				extraImports = append(extraImports, entry)
			}
		}

		// For cross-package relations with a separate dest package, the target
		// factory lives in the external query package, not the current one.
		if isCrossPkg && destPkg != "" && sourceImport != "" {
			extQueryImport := replaceLastSegment(rel.TargetImportPath, destPkg)
			destQueryImport := replaceLastSegment(sourceImport, destPkg)
			if extQueryImport != destQueryImport {
				queryAlias := resolveAlias(extQueryImport, destQueryImport)
				targetFactory = queryAlias + "." + targetFactory
				if !seen[extQueryImport] {
					seen[extQueryImport] = true
					entry := importEntry{Path: extQueryImport}
					if queryAlias != destPkg {
						entry.Alias = queryAlias
					}
					extraImports = append(extraImports, entry)
				}
			}
		}

		rd := relationTemplateData{
			FieldName:       rel.FieldName,
			ParentType:      typePrefix + info.Name,
			TargetType:      targetTypePrefix + rel.TargetType,
			TargetFactory:   targetFactory,
			ForeignKey:      rel.ForeignKey,
			ForeignKeyField: fkField,
			RelType:         rel.RelType,
			IsPointer:       rel.IsPointer,
			PreloaderName:   unexportedName("preload" + info.Name + rel.FieldName),
			ParentPKField:   pk.Name,
			TargetPKField:   targetPKField,
			TargetPKColumn:  targetPKColumn,
		}

		switch rel.RelType {
		case "has_many", "has_one":
			rd.KeyType = pk.GoType
			rd.JoinTargetTable = targetTable
			rd.JoinTargetColumn = rel.ForeignKey
			rd.JoinSourceTable = info.TableName
			rd.JoinSourceColumn = pk.Column
		case "many_to_many":
			rd.KeyType = pk.GoType
			rd.JoinTable = rel.JoinTable
			rd.References = rel.References
		default: // belongs_to
			fkType := lookupFieldType(info, rel.ForeignKey)
			if strings.HasPrefix(fkType, "*") {
				rd.FKIsPointer = true
				fkType = fkType[1:]
			}
			if f := lookupField(info, rel.ForeignKey); f != nil {
				rd.ForeignKeyField = f.Name
			}
			rd.KeyType = fkType
			rd.JoinTargetTable = targetTable
			rd.JoinTargetColumn = targetPKColumn
			rd.JoinSourceTable = info.TableName
			rd.JoinSourceColumn = rel.ForeignKey
		}

		// Populate join scan fields for belongs_to / has_one when the target
		// struct is in the same package (available in allInfos).
		if (rel.RelType == "belongs_to" || rel.RelType == "has_one") && targetInfo != nil {
			rd.JoinScanFields = targetInfo.Fields
			rd.JoinSelectColumns = make([]string, len(targetInfo.Fields))
			for i, f := range targetInfo.Fields {
				rd.JoinSelectColumns[i] = f.Column
			}
			if targetPK, err := targetInfo.PrimaryKeyField(); err == nil {
				rd.JoinPKGoType = targetPK.GoType
				rd.JoinPKName = targetPK.Name
			}
		}

		rels = append(rels, rd)
	}
	return rels, extraImports
}

// buildForeignData derives the accessor set generated for each foreign field
// of a related model. Validate has already checked that targets exist.
func buildForeignData(info *StructInfo, typePrefix string, allInfos []*StructInfo) []foreignTemplateData {
	foreignFields := info.ForeignFields()
	out := make([]foreignTemplateData, 0, len(foreignFields))
	sourceFactory := factoryName(info, typePrefix)

	for _, f := range foreignFields {
		target := findStructInfo(allInfos, f.Foreign)
		if target == nil {
			continue
		}
		targetPK, err := target.PrimaryKeyField()
		if err != nil {
			continue
		}

		relName := relationName(f)
		inverse := target.Name + sourceFactory
		if relName != target.Name {
			inverse += "By" + relName
		}

		out = append(out, foreignTemplateData{
			RelName:        relName,
			FieldName:      f.Name,
			Column:         f.Column,
			FKIsPointer:    strings.HasPrefix(f.GoType, "*"),
			KeyType:        targetPK.GoType,
			SourceType:     typePrefix + info.Name,
			SourceTable:    info.TableName,
			SourceFactory:  sourceFactory,
			TargetType:     typePrefix + target.Name,
			TargetTable:    target.TableName,
			TargetFactory:  factoryName(target, typePrefix),
			TargetPKField:  targetPK.Name,
			TargetPKColumn: targetPK.Column,
			AccessorName:   info.Name + relName,
			LoaderName:     "Load" + info.Name + inflection.Plural(relName),
			InverseName:    inverse,
		})
	}
	return out
}

// relationName derives the relation name of a foreign field: "UserID" → "User",
// "AuthorID" → "Author". Fields without an ID suffix fall back to the target name.
func relationName(f FieldInfo) string {
	if name, ok := strings.CutSuffix(f.Name, "ID"); ok && name != "" {
		return name
	}
	return f.Foreign
}

// factoryName returns the query factory name for info. A factory rendered into
// the model's own package must not collide with the model type itself.
func factoryName(info *StructInfo, typePrefix string) string {
	name := naming.SnakeToCamel(info.TableName)
	if typePrefix == "" && name == info.Name {
		name += "Query"
	}
	return name
}

// resolveAlias determines the import alias for an external package.
// If the last path segment conflicts with the source import's last segment,
// it prepends the previous segment to disambiguate.
func resolveAlias(importPath, sourceImport string) string {
	parts := strings.Split(importPath, "/")
	lastSeg := parts[len(parts)-1]

	if sourceImport == "" {
		return lastSeg
	}

	srcParts := strings.Split(sourceImport, "/")
	srcLastSeg := srcParts[len(srcParts)-1]

	if lastSeg != srcLastSeg {
		return lastSeg
	}

	// Conflict: e.g. both end in "model". Use previous segment + last segment.
	if len(parts) >= 2 {
		return parts[len(parts)-2] + lastSeg
	}
	return lastSeg
}

// replaceLastSegment replaces the last path segment of an import path.
// e.g. replaceLastSegment("github.com/foo/model", "query") → "github.com/foo/query"
func replaceLastSegment(importPath, newSeg string) string {
	i := strings.LastIndex(importPath, "/")
	if i < 0 {
		return newSeg
	}
	return importPath[:i+1] + newSeg
}

func lookupField(info *StructInfo, column string) *FieldInfo {
	for i := range info.Fields {
		if info.Fields[i].Column == column {
			return &info.Fields[i]
		}
	}
	return nil
}

func lookupFieldType(info *StructInfo, column string) string {
	if f := lookupField(info, column); f != nil {
		return f.GoType
	}
	return "int" // fallback
}

func unexportedName(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func filterFields(fields []FieldInfo, pred func(FieldInfo) bool) []FieldInfo {
	var out []FieldInfo
	for _, f := range fields {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

func findStructInfo(infos []*StructInfo, name string) *StructInfo {
	for _, info := range infos {
		if info.Name == name {
			return info
		}
	}
	return nil
}

// mergeInfos appends peers that are not already part of infos.
func mergeInfos(infos, peers []*StructInfo) []*StructInfo {
	if len(peers) == 0 {
		return infos
	}
	all := make([]*StructInfo, 0, len(infos)+len(peers))
	all = append(all, infos...)
	for _, p := range peers {
		if findStructInfo(infos, p.Name) == nil {
			all = append(all, p)
		}
	}
	return all
}

func isIntType(goType string) bool {
	switch goType {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return true
	default:
		return false
	}
}
