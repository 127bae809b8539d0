package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/mickamy/elucify/internal/gen"
)

const (
	dirFlag     = "dir"
	dialectFlag = "dialect"
	formatFlag  = "format"
	outFlag     = "out"
)

func newSchemaCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		dirFlag: &cobraflags.StringFlag{
			Name:  dirFlag,
			Value: ".",
			Usage: "Package directory containing the models",
		},
		dialectFlag: &cobraflags.StringFlag{
			Name:  dialectFlag,
			Value: "postgres",
			Usage: "Database dialect (postgres, mysql, sqlite)",
		},
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "sql",
			Usage: "Output format: sql (plain statements) or goose (migration file)",
		},
		outFlag: &cobraflags.StringFlag{
			Name:  outFlag,
			Value: "",
			Usage: "Output file; empty prints to stdout",
		},
	}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Render CREATE TABLE statements for the models of a package",
		Long: `Render CREATE TABLE statements for every //elucify:model struct of a package.

Tables are ordered so that referenced tables are created first.

Examples:
  elucify schema --dir ./model --dialect sqlite
  elucify schema --dir ./model --dialect postgres --format goose --out migrations/postgres/00001_init.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := gen.ParseDir(flags[dirFlag].GetString())
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			out, err := renderSchema(infos, flags[dialectFlag].GetString(), flags[formatFlag].GetString())
			if err != nil {
				return err
			}

			path := flags[outFlag].GetString()
			if path == "" {
				_, err := cmd.OutOrStdout().Write(out)
				return err //nolint:wrapcheck // stdout
			}
			if err := os.WriteFile(path, out, 0o644); err != nil { //nolint:gosec // schema files are not secret
				return fmt.Errorf("write %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "elucify: wrote %s\n", path)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func renderSchema(infos []*gen.StructInfo, dialect, format string) ([]byte, error) {
	switch format {
	case "goose":
		return gen.RenderMigration(infos, dialect) //nolint:wrapcheck // already descriptive
	case "sql":
		stmts, err := gen.RenderSchema(infos, dialect)
		if err != nil {
			return nil, err //nolint:wrapcheck // already descriptive
		}
		var b strings.Builder
		for _, stmt := range stmts {
			b.WriteString(stmt)
			b.WriteString(";\n\n")
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want sql or goose)", format)
	}
}
