package gen_test

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/mickamy/elucify/internal/gen"
)

// render renders infos and checks that the result is valid Go.
func render(t *testing.T, infos []*gen.StructInfo, opt gen.RenderOption) string {
	t.Helper()

	src, err := gen.RenderFile(infos, opt)
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return string(src)
}

func assertContains(t *testing.T, src string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("generated code does not contain %q", want)
		}
	}
}

func assertNotContains(t *testing.T, src string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(src, s) {
			t.Errorf("generated code unexpectedly contains %q", s)
		}
	}
}

func TestRenderBasic(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("user.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := render(t, infos[1:], gen.RenderOption{})

	assertContains(t, src,
		"// Code generated by elucify; DO NOT EDIT.",
		"package testdata",
		"func BlogPosts(db orm.Querier) *orm.Query[Post] {",
		`orm.ResolveTableName[Post]("blog_posts")`,
		`var blogPostsColumns = []string{"id", "user_id", "title"}`,
		"func scanPost(rows *sql.Rows) (Post, error) {",
		"func postColumnValuePairs(v *Post, includesPK bool) ([]string, []any) {",
		"func setPostPK(v *Post, id int64) {",
		"v.ID = int(id)",
	)
	assertNotContains(t, src, `"context"`, `"time"`, "RegisterJoin")
}

func TestRenderNoPrimaryKey(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("no_pk.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := gen.Render(infos[0]); err == nil {
		t.Fatal("expected error for model without primary key, got nil")
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	if _, err := gen.RenderFile(nil, gen.RenderOption{}); err == nil {
		t.Fatal("expected error for empty input, got nil")
	}
}

func TestRenderTimestamps(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("timestamps.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := render(t, infos, gen.RenderOption{})

	assertContains(t, src,
		`"time"`,
		"q.RegisterTimestamps(",
		`[]string{"created_at"}`,
		`[]string{"inserted_at"}`,
		"func setWithTimestampsCreatedAt(v *WithTimestamps, now time.Time) {",
		"if v.CreatedAt.IsZero() {",
		"func setWithCustomTimestampColsUpdatedAt(v *WithCustomTimestampCols, now time.Time) {",
		"v.ModifiedAt = now",
	)
}

func TestRenderRelations(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("relations.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := render(t, infos, gen.RenderOption{})

	assertContains(t, src,
		`q.RegisterJoin("Articles", orm.JoinConfig{`,
		`q.RegisterPreloader("Articles", preloadAuthorArticles)`,
		"func preloadAuthorArticles(ctx context.Context, db orm.Querier, results []Author) error {",
		`Articles(db).Scopes(scope.In("author_id", ids)).All(ctx)`,
		"func preloadArticleAuthor(ctx context.Context, db orm.Querier, results []Article) error {",
		`SelectColumns: []string{"id", "name"}`,
		`case "Author__id":`,
		"var joinScanAuthorPK sql.Null[int]",
		`dest[i] = orm.NullDest(&joinScanAuthor.Name)`,
		"v.Author = &joinScanAuthor",
	)
}

func TestRenderCrossPackage(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("cross_pkg_relations.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := render(t, infos, gen.RenderOption{
		DestPkg:      "query",
		SourceImport: "github.com/example/app/model",
	})

	assertContains(t, src,
		"package query",
		`"github.com/example/app/model"`,
		`authmodel "github.com/example/auth/model"`,
		`authquery "github.com/example/auth/query"`,
		"authquery.OAuthAccounts(db)",
		"func EndUsers(db orm.Querier) *orm.Query[model.EndUser] {",
		"dest[i] = orm.NullDest(&v.Email.Address)",
	)
}

func TestRenderRelated(t *testing.T) {
	t.Parallel()

	infos, err := gen.ParseDir(testdataPath("accounts"))
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	src := render(t, infos, gen.RenderOption{
		DestPkg:      "query",
		SourceImport: "example.com/app/model",
	})

	assertContains(t, src,
		"func Users(db orm.Querier) *orm.Query[model.User] {",
		"func Credentials(db orm.Querier) *orm.Query[model.Credentials] {",
		"func Sessions(db orm.Querier) *orm.Query[model.Session] {",
		`q.RegisterJoin("User", orm.JoinConfig{`,
		`TargetTable: orm.ResolveTableName[model.User]("users"), TargetColumn: "id"`,
		`SourceTable: orm.ResolveTableName[model.Credentials]("credentials"), SourceColumn: "user_id"`,
		"func CredentialsUser(ctx context.Context, db orm.Querier, v model.Credentials) (model.User, error) {",
		`return Users(db).Scopes(scope.Where("id = ?", v.UserID)).First(ctx)`,
		"func LoadCredentialsUsers(ctx context.Context, db orm.Querier, rows []model.Credentials) (map[int32]model.User, error) {",
		"ids = orm.Distinct(ids)",
		"func UserCredentials(ctx context.Context, db orm.Querier, v model.User) ([]model.Credentials, error) {",
		`return Credentials(db).Scopes(scope.Where("user_id = ?", v.ID)).All(ctx)`,
		// nullable foreign key
		"func SessionReviewer(ctx context.Context, db orm.Querier, v model.Session) (model.User, error) {",
		"if v.ReviewerID == nil {",
		"return zero, orm.ErrNotFound",
		"func LoadSessionReviewers(",
		"func UserSessions(",
		"func UserSessionsByReviewer(",
		`q.RegisterJoin("Reviewer", orm.JoinConfig{`,
		// User timestamps
		"func setUserCreatedAt(v *model.User, now time.Time) {",
	)
	// User is not related and gets no accessors of its own.
	assertNotContains(t, src, "func UserUser(")
}

func TestRenderSamePackageFactoryName(t *testing.T) {
	t.Parallel()

	infos, err := gen.ParseDir(testdataPath("accounts"))
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	src := render(t, infos[1:2], gen.RenderOption{PeerInfos: infos})

	assertContains(t, src,
		"package accounts",
		"func CredentialsQuery(db orm.Querier) *orm.Query[Credentials] {",
		"func CredentialsUser(ctx context.Context, db orm.Querier, v Credentials) (User, error) {",
		"return CredentialsQuery(db).Scopes(",
	)
}

func TestRenderForeignValidation(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("invalid/mismatch.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = gen.RenderFile(infos, gen.RenderOption{})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{`foreign model "Team" not found`, "foreign key type int32 does not match Account.ID type int64"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestRenderForeignRelationNames(t *testing.T) {
	t.Parallel()

	infos, err := gen.ParseDir(testdataPath("foreignnames"))
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	src := render(t, infos, gen.RenderOption{})

	assertContains(t, src,
		// AuthorID: named after the field without its ID suffix
		`q.RegisterJoin("Author", orm.JoinConfig{`,
		"func PostAuthor(ctx context.Context, db orm.Querier, v Post) (User, error) {",
		"func LoadPostAuthors(",
		"func UserPostsByAuthor(ctx context.Context, db orm.Querier, v User) ([]Post, error) {",
		// Editor: no ID suffix, named after the target
		`q.RegisterJoin("User", orm.JoinConfig{`,
		"func PostUser(ctx context.Context, db orm.Querier, v Post) (User, error) {",
		"func UserPosts(ctx context.Context, db orm.Querier, v User) ([]Post, error) {",
		// ParentID: self reference
		`q.RegisterJoin("Parent", orm.JoinConfig{`,
		`TargetTable: orm.ResolveTableName[Post]("posts"), TargetColumn: "id",`,
		`SourceTable: orm.ResolveTableName[Post]("posts"), SourceColumn: "parent_id",`,
		"func PostPostsByParent(",
	)
}
