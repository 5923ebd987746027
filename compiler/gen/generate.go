package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
)

const (
	schemaPkg = "github.com/syssam/lightdao/schema"
	fieldPkg  = "github.com/syssam/lightdao/schema/field"
)

// Generate writes the field tables of entities into cfg.OutDir, one file per
// entity in parallel.
func Generate(ctx context.Context, cfg *Config, entities []*schema.Entity) error {
	if cfg == nil {
		return &ConfigError{Option: "Config", Message: "nil config"}
	}
	if err := check(entities); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return &GenerationError{Message: "create output directory", Cause: err}
	}
	sorted := slices.Clone(entities)
	slices.SortFunc(sorted, func(a, b *schema.Entity) int { return strings.Compare(a.Name, b.Name) })

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for _, e := range sorted {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return writeFile(cfg, FileName(e), entityFile(cfg, e))
			}
		})
	}
	eg.Go(func() error {
		return writeFile(cfg, "entities.go", indexFile(cfg, sorted))
	})
	return eg.Wait()
}

// FileName returns the generated file name of e.
func FileName(e *schema.Entity) string {
	return naming.Snake(e.Name) + "_fields.go"
}

func check(entities []*schema.Entity) error {
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		switch {
		case e == nil:
			return &SchemaError{Message: "nil entity"}
		case !isExported(e.Name):
			return &SchemaError{Entity: e.Name, Message: "name must be an exported Go identifier"}
		case seen[e.Name]:
			return &SchemaError{Entity: e.Name, Message: "declared twice"}
		}
		seen[e.Name] = true
		fields := make(map[string]bool, len(e.Fields))
		for _, f := range e.Fields {
			key := export(f.Name())
			if fields[key] {
				return &SchemaError{Entity: e.Name, Field: f.Name(), Message: "declared twice"}
			}
			fields[key] = true
		}
	}
	return nil
}

func newFile(cfg *Config) *jen.File {
	f := jen.NewFile(cfg.Package)
	if cfg.Header != "" {
		f.HeaderComment(cfg.Header)
	}
	return f
}

func table(e *schema.Entity) string {
	if e.Table != "" {
		return e.Table
	}
	return naming.Snake(e.Name)
}

func column(name string, override bool, col string) string {
	if override {
		return col
	}
	return naming.Snake(name)
}

func entityFile(cfg *Config, e *schema.Entity) *jen.File {
	f := newFile(cfg)
	fields := e.Name + "Fields"

	f.Commentf("%s lists the fields of %s.", fields, e.Name)
	f.Var().Id(fields).Op("=").Index().Qual(fieldPkg, "Descriptor").ValuesFunc(func(g *jen.Group) {
		for _, fd := range e.Fields {
			d := jen.Dict{jen.Id("FieldName"): jen.Lit(fd.Name())}
			if fd.HasColumnOverride() {
				d[jen.Id("Column")] = jen.Lit(fd.ColumnOverride())
			}
			g.Values(d)
		}
	})

	f.Commentf("%sEntity describes the %s table.", e.Name, table(e))
	f.Var().Id(e.Name+"Entity").Op("=").Op("&").Qual(schemaPkg, "Entity").Values(jen.Dict{
		jen.Id("Name"):       jen.Lit(e.Name),
		jen.Id("Table"):      jen.Lit(table(e)),
		jen.Id("PrimaryKey"): jen.Lit(e.PK()),
		jen.Id("Fields"):     jen.Qual(schemaPkg, "Fields").Call(jen.Id(fields).Op("...")),
	})

	if len(e.Fields) > 0 {
		f.Commentf("Column names of %s.", e.Name)
		f.Const().DefsFunc(func(g *jen.Group) {
			for _, fd := range e.Fields {
				g.Id(e.Name + "Column" + export(fd.Name())).Op("=").
					Lit(column(fd.Name(), fd.HasColumnOverride(), fd.ColumnOverride()))
			}
		})
	}
	return f
}

func indexFile(cfg *Config, entities []*schema.Entity) *jen.File {
	f := newFile(cfg)
	f.Comment("Entities indexes the generated entities by name.")
	f.Var().Id("Entities").Op("=").Map(jen.String()).Op("*").Qual(schemaPkg, "Entity").Values(jen.DictFunc(func(d jen.Dict) {
		for _, e := range entities {
			d[jen.Lit(e.Name)] = jen.Id(e.Name + "Entity")
		}
	}))
	return f
}

// writeFile renders f, formats it and writes it to cfg.OutDir/name.
func writeFile(cfg *Config, name string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return &GenerationError{File: name, Message: "render", Cause: err}
	}
	path := filepath.Join(cfg.OutDir, name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		return &GenerationError{File: name, Message: "format", Cause: err}
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return &GenerationError{File: name, Message: fmt.Sprintf("write %s", path), Cause: err}
	}
	return nil
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return name != "" && unicode.IsUpper(r) && !strings.ContainsFunc(name, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// export upper-cases the first rune of a field name.
func export(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
