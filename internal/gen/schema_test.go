package gen_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mickamy/elucify/internal/gen"
)

func TestRenderSchema(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("accounts/models.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		dialect string
		want    []string
	}{
		{
			dialect: "sqlite",
			want: []string{
				`CREATE TABLE "users" (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
  "username" TEXT NOT NULL,
  "email" TEXT NOT NULL,
  "created_at" DATETIME NOT NULL,
  "last_login" DATETIME
)`,
				`CREATE TABLE "credentials" (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
  "user_id" INTEGER NOT NULL,
  "password" TEXT NOT NULL,
  FOREIGN KEY ("user_id") REFERENCES "users" ("id")
)`,
			},
		},
		{
			dialect: "postgres",
			want: []string{
				`CREATE TABLE "users" (
  "id" SERIAL PRIMARY KEY,
  "username" TEXT NOT NULL,
  "email" TEXT NOT NULL,
  "created_at" TIMESTAMPTZ NOT NULL,
  "last_login" TIMESTAMPTZ
)`,
				`CREATE TABLE "credentials" (
  "id" SERIAL PRIMARY KEY,
  "user_id" INTEGER NOT NULL,
  "password" TEXT NOT NULL,
  FOREIGN KEY ("user_id") REFERENCES "users" ("id")
)`,
			},
		},
		{
			dialect: "mysql",
			want: []string{
				"CREATE TABLE `users` (\n" +
					"  `id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY,\n" +
					"  `username` VARCHAR(255) NOT NULL,\n" +
					"  `email` VARCHAR(255) NOT NULL,\n" +
					"  `created_at` DATETIME(6) NOT NULL,\n" +
					"  `last_login` DATETIME(6)\n" +
					")",
				"CREATE TABLE `credentials` (\n" +
					"  `id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY,\n" +
					"  `user_id` INT NOT NULL,\n" +
					"  `password` VARCHAR(255) NOT NULL,\n" +
					"  FOREIGN KEY (`user_id`) REFERENCES `users` (`id`)\n" +
					")",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			t.Parallel()

			got, err := gen.RenderSchema(infos, tt.dialect)
			if err != nil {
				t.Fatalf("RenderSchema: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderSchemaOrdersByDependency(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("relations.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Article references Author through its belongs_to relation.
	reversed := []*gen.StructInfo{infos[1], infos[0]}

	stmts, err := gen.RenderSchema(reversed, "postgres")
	if err != nil {
		t.Fatalf("RenderSchema: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2", len(stmts))
	}
	if !strings.HasPrefix(stmts[0], `CREATE TABLE "authors"`) {
		t.Errorf("first statement = %q, want authors first", stmts[0])
	}
	if !strings.Contains(stmts[1], `FOREIGN KEY ("author_id") REFERENCES "authors" ("id")`) {
		t.Errorf("articles statement lacks foreign key: %s", stmts[1])
	}
}

func TestRenderSchemaOnDelete(t *testing.T) {
	t.Parallel()

	infos, err := gen.ParseDir(testdataPath("accounts"))
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	stmts, err := gen.RenderSchema(infos, "postgres")
	if err != nil {
		t.Fatalf("RenderSchema: %v", err)
	}

	sessions := stmts[2]
	for _, want := range []string{
		`"reviewer_id" INTEGER,`,
		`"expires_at" TIMESTAMPTZ`,
		`FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		`FOREIGN KEY ("reviewer_id") REFERENCES "users" ("id") ON DELETE SET NULL`,
	} {
		if !strings.Contains(sessions, want) {
			t.Errorf("sessions statement lacks %q:\n%s", want, sessions)
		}
	}
}

func TestRenderSchemaCycle(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("invalid/cycle.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = gen.RenderSchema(infos, "sqlite")
	if err == nil || !strings.Contains(err.Error(), "dependency cycle among tables: lefts, rights") {
		t.Errorf("err = %v, want dependency cycle", err)
	}
}

func TestRenderSchemaUnique(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("unique.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		dialect string
		want    string
	}{
		{"sqlite", `CREATE TABLE "members" (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
  "email" TEXT NOT NULL UNIQUE,
  "nick" TEXT UNIQUE,
  "bio" TEXT NOT NULL
)`},
		{"mysql", "CREATE TABLE `members` (\n" +
			"  `id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,\n" +
			"  `email` VARCHAR(255) NOT NULL UNIQUE,\n" +
			"  `nick` VARCHAR(255) UNIQUE,\n" +
			"  `bio` VARCHAR(255) NOT NULL\n" +
			")"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			t.Parallel()

			got, err := gen.RenderSchema(infos, tt.dialect)
			if err != nil {
				t.Fatalf("RenderSchema: %v", err)
			}
			if diff := cmp.Diff([]string{tt.want}, got); diff != "" {
				t.Errorf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderSchemaUnknownDialect(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("accounts/models.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := gen.RenderSchema(infos, "oracle"); err == nil {
		t.Error("expected error for unknown dialect, got nil")
	}
}

func TestRenderMigration(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("accounts/models.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src, err := gen.RenderMigration(infos, "sqlite")
	if err != nil {
		t.Fatalf("RenderMigration: %v", err)
	}

	got := string(src)
	up := strings.Index(got, "-- +goose Up\n")
	down := strings.Index(got, "-- +goose Down\n")
	if up < 0 || down < up {
		t.Fatalf("goose annotations missing or out of order:\n%s", got)
	}
	wantDown := "-- +goose Down\nDROP TABLE IF EXISTS \"credentials\";\nDROP TABLE IF EXISTS \"users\";\n"
	if !strings.HasSuffix(got, wantDown) {
		t.Errorf("down section = %q, want %q", got[down:], wantDown)
	}
	if strings.Index(got, `CREATE TABLE "users"`) > strings.Index(got, `CREATE TABLE "credentials"`) {
		t.Error("users must be created before credentials")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid, err := gen.ParseDir(testdataPath("accounts"))
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if err := gen.Validate(valid); err != nil {
		t.Errorf("Validate(accounts) = %v, want nil", err)
	}

	// Credentials alone cannot resolve its User reference.
	if err := gen.Validate(valid[1:2]); err == nil {
		t.Error("Validate without the User model returned nil")
	}

	noPK, err := gen.Parse(testdataPath("no_pk.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := gen.Validate(noPK); err == nil {
		t.Error("Validate(no_pk) returned nil")
	}
}
