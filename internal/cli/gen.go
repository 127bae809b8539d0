package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"

	"github.com/mickamy/elucify/internal/gen"
)

const (
	sourceFlag      = "source"
	destinationFlag = "destination"
)

func newGenCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		sourceFlag: &cobraflags.StringFlag{
			Name:  sourceFlag,
			Value: "",
			Usage: "Go file declaring the models (defaults to $GOFILE)",
		},
		destinationFlag: &cobraflags.StringFlag{
			Name:  destinationFlag,
			Value: "",
			Usage: "Output directory relative to the source file; empty writes next to the source",
		},
	}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate query code for the models of a Go file",
		Long: `Generate query code for every //elucify:model struct of a Go file.

Models of the other files of the same package are used to resolve foreign keys.
The output is written to <file>_gen.go.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source := flags[sourceFlag].GetString()
			if source == "" {
				source = os.Getenv("GOFILE")
			}
			if source == "" {
				return errors.New("--source is required when GOFILE is not set")
			}
			outPath, err := generate(source, flags[destinationFlag].GetString())
			if err != nil {
				return err
			}
			if outPath == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "elucify: no models in %s\n", source)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "elucify: wrote %s\n", outPath)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// generate renders the models of source into destination and returns the
// path written, or "" when source declares no model.
func generate(source, destination string) (string, error) {
	infos, err := gen.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	if len(infos) == 0 {
		return "", nil
	}

	srcDir := filepath.Dir(source)
	peers, err := gen.ParseDir(srcDir)
	if err != nil {
		return "", fmt.Errorf("parse package: %w", err)
	}

	opt := gen.RenderOption{PeerInfos: peers}
	outDir := srcDir
	if destination != "" {
		outDir = filepath.Join(srcDir, destination)
		srcImport, err := importPath(srcDir)
		if err != nil {
			return "", err
		}
		opt.DestPkg = filepath.Base(outDir)
		opt.SourceImport = srcImport
	}

	src, err := gen.RenderFile(infos, opt)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(source), ".go")+"_gen.go")
	if err := os.WriteFile(outPath, src, 0o644); err != nil { //nolint:gosec // generated code should be world-readable
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}

// importPath resolves the import path of the package in dir from the
// nearest go.mod.
func importPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for root := abs; ; {
		module, err := moduleName(filepath.Join(root, "go.mod"))
		switch {
		case err == nil:
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", dir, err)
			}
			if rel == "." {
				return module, nil
			}
			return module + "/" + filepath.ToSlash(rel), nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("no go.mod found above %s", abs)
		}
		root = parent
	}
}

func moduleName(goMod string) (string, error) {
	data, err := os.ReadFile(goMod)
	if err != nil {
		return "", err //nolint:wrapcheck // caller checks os.ErrNotExist
	}
	name := modfile.ModulePath(data)
	if name == "" {
		return "", fmt.Errorf("%s: module directive not found", goMod)
	}
	return name, nil
}
