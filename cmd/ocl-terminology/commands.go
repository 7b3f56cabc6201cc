package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/engine"
	"github.com/gofhir/terminology/fhirconv"
	"github.com/gofhir/terminology/internal/app"
	"github.com/gofhir/terminology/pkg/logger"
	"github.com/gofhir/terminology/store/fixture"
	"github.com/gofhir/terminology/stream"
)

// ownerFlag parses "org:ID" or "user:ID". Unset means any owner.
type ownerFlag struct {
	owner *tx.Owner
}

func (f *ownerFlag) String() string {
	if f.owner == nil {
		return ""
	}
	return f.owner.String()
}

func (f *ownerFlag) Set(s string) error {
	o, err := tx.ParseOwner(s)
	if err != nil {
		return err
	}
	f.owner = &o
	return nil
}

func (f *ownerFlag) Type() string { return "owner" }

func (c *cli) lookupCmd() *cobra.Command {
	var (
		req   engine.LookupRequest
		owner ownerFlag
	)
	cmd := &cobra.Command{
		Use:     "lookup",
		Short:   "CodeSystem $lookup",
		Example: "  ocl-terminology lookup --system http://ocl.org/CodeSystem/CIEL --code 1226",
		Args:    cobra.NoArgs,
		RunE: c.withApp(tx.OpLookup, func(ctx context.Context, a *app.App) error {
			req.Owner = owner.owner
			res, err := a.Engine.Lookup(ctx, req)
			if err != nil {
				return err
			}
			return c.writeJSON(fhirconv.LookupParameters(res))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.System, "system", "", "code system canonical URL")
	f.StringVar(&req.ID, "id", "", "code system mnemonic (instead of --system)")
	f.StringVar(&req.Code, "code", "", "concept code")
	f.StringVar(&req.Version, "version", "", "code system version (default: latest released)")
	f.StringVar(&req.DisplayLanguage, "lang", "", "display language")
	f.Var(&owner, "owner", "owner, e.g. org:CIEL")
	return cmd
}

func (c *cli) validateCodeCmd() *cobra.Command {
	var (
		req   engine.ValidateCodeRequest
		owner ownerFlag
	)
	cmd := &cobra.Command{
		Use:   "validate-code",
		Short: "CodeSystem $validate-code",
		Args:  cobra.NoArgs,
		RunE: c.withApp(tx.OpValidateCode, func(ctx context.Context, a *app.App) error {
			req.Owner = owner.owner
			res, err := a.Engine.ValidateCode(ctx, req)
			if err != nil {
				return err
			}
			return c.writeJSON(fhirconv.ValidateCodeParameters(res))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.URL, "url", "", "code system canonical URL")
	f.StringVar(&req.ID, "id", "", "code system mnemonic (instead of --url)")
	f.StringVar(&req.Code, "code", "", "concept code")
	f.StringVar(&req.Version, "version", "", "code system version (default: latest released)")
	f.StringVar(&req.Display, "display", "", "display to check")
	f.StringVar(&req.DisplayLanguage, "lang", "", "display language")
	f.Var(&owner, "owner", "owner, e.g. org:CIEL")
	return cmd
}

func (c *cli) validateValueSetCmd() *cobra.Command {
	var (
		req   engine.ValueSetValidateCodeRequest
		owner ownerFlag
	)
	cmd := &cobra.Command{
		Use:   "validate-vs",
		Short: "ValueSet $validate-code",
		Args:  cobra.NoArgs,
		RunE: c.withApp(tx.OpValidateValueSet, func(ctx context.Context, a *app.App) error {
			req.Owner = owner.owner
			res, err := a.Engine.ValidateValueSetCode(ctx, req)
			if err != nil {
				return err
			}
			return c.writeJSON(fhirconv.ValidateCodeParameters(res))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.URL, "url", "", "value set canonical URL")
	f.StringVar(&req.Version, "version", "", "value set version (default: latest released)")
	f.StringVar(&req.System, "system", "", "code system canonical URL")
	f.StringVar(&req.SystemVersion, "system-version", "", "code system version")
	f.StringVar(&req.Code, "code", "", "concept code")
	f.StringVar(&req.Display, "display", "", "display to check")
	f.StringVar(&req.DisplayLanguage, "lang", "", "display language")
	f.Var(&owner, "owner", "owner, e.g. org:CIEL")
	return cmd
}

func (c *cli) expandCmd() *cobra.Command {
	var (
		req   engine.ExpandRequest
		owner ownerFlag
		count int
	)
	cmd := &cobra.Command{
		Use:     "expand",
		Short:   "ValueSet $expand",
		Example: "  ocl-terminology expand --url http://ocl.org/ValueSet/vitals --count 10",
		Args:    cobra.NoArgs,
	}
	cmd.RunE = c.withApp(tx.OpExpand, func(ctx context.Context, a *app.App) error {
		req.Owner = owner.owner
		if cmd.Flags().Changed("count") {
			req.Count = &count
		}
		res, err := a.Engine.Expand(ctx, req)
		if err != nil {
			return err
		}
		return c.writeJSON(fhirconv.ValueSet(res.Collection, res))
	})
	f := cmd.Flags()
	f.StringVar(&req.URL, "url", "", "value set canonical URL")
	f.StringVar(&req.ID, "id", "", "value set mnemonic (instead of --url)")
	f.StringVar(&req.Version, "version", "", "value set version (default: latest released)")
	f.StringVar(&req.SystemVersion, "system-version", "", "pin every entry to url|version")
	f.IntVar(&req.Offset, "offset", 0, "index of the first entry")
	f.IntVar(&count, "count", 0, "page size (default: engine page size)")
	f.Var(&owner, "owner", "owner, e.g. org:CIEL")
	return cmd
}

func (c *cli) codeSystemCmd() *cobra.Command {
	var (
		req   engine.CodeSystemRequest
		owner ownerFlag
	)
	cmd := &cobra.Command{
		Use:   "codesystem",
		Short: "List the concepts of a code system version",
		Args:  cobra.NoArgs,
		RunE: c.withApp(tx.OpCodeSystemConcepts, func(ctx context.Context, a *app.App) error {
			req.Owner = owner.owner
			res, err := a.Engine.CodeSystem(ctx, req)
			if err != nil {
				return err
			}
			return c.writeJSON(fhirconv.CodeSystem(res))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.URL, "url", "", "code system canonical URL")
	f.StringVar(&req.ID, "id", "", "code system mnemonic (instead of --url)")
	f.StringVar(&req.Version, "version", "", "code system version (default: latest released)")
	f.Var(&owner, "owner", "owner, e.g. org:CIEL")
	return cmd
}

// initDBCmd relies on app.New having created the schema.
func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: c.withApp("init_db", func(_ context.Context, a *app.App) error {
			if a.SQL() == nil {
				return tx.BadRequest("init-db: driver %q has no schema", a.Config.Database.Driver)
			}
			_, err := fmt.Fprintf(c.stdout, "schema ready (%s)\n", a.Config.Database.Driver)
			return err
		}),
	}
}

func (c *cli) importCmd() *cobra.Command {
	var (
		datasetPath, codeSystemPath, bundlePath string
		opts                                    fhirconv.SourceOptions
		owner                                   ownerFlag
	)
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Import a JSON dataset or a FHIR CodeSystem",
		Example: "  ocl-terminology import --codesystem gender.json --owner org:OCL --released",
		Args:    cobra.NoArgs,
		RunE: c.withApp("import", func(ctx context.Context, a *app.App) error {
			if countSet(datasetPath, codeSystemPath, bundlePath) != 1 {
				return tx.BadRequest("import: exactly one of --fixture, --codesystem or --bundle is required")
			}
			if a.SQL() == nil {
				return tx.BadRequest("import: driver %q is not persistent", a.Config.Database.Driver)
			}

			var ds *fixture.Dataset
			if datasetPath != "" {
				var err error
				if ds, err = fixture.ReadFile(datasetPath); err != nil {
					return err
				}
			} else {
				if owner.owner != nil {
					opts.Owner = *owner.owner
				}
				opts.CreatedAt = time.Now().UTC()

				var err error
				if codeSystemPath != "" {
					ds, err = readCodeSystem(codeSystemPath, opts)
				} else {
					ds, err = readBundle(ctx, bundlePath, opts)
				}
				if err != nil {
					return err
				}
			}

			stats, err := a.SQL().Import(ctx, ds)
			if err != nil {
				return err
			}
			a.Logger.Debug("import finished", zap.Int64("concepts", stats.ConceptsLoaded))
			return c.writeJSON(stats)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&datasetPath, "fixture", "", "JSON dataset to import")
	f.StringVar(&codeSystemPath, "codesystem", "", "FHIR CodeSystem JSON to import")
	f.StringVar(&bundlePath, "bundle", "", "FHIR Bundle JSON whose CodeSystems are imported")
	f.StringVar(&opts.Mnemonic, "mnemonic", "", "source mnemonic (default: CodeSystem id)")
	f.StringVar(&opts.Version, "version", "", "source version (default: CodeSystem version)")
	f.BoolVar(&opts.Released, "released", false, "mark the source version released")
	f.Var(&owner, "owner", "owner of the imported CodeSystem, e.g. org:OCL")
	return cmd
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func readCodeSystem(path string, opts fhirconv.SourceOptions) (*fixture.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open codesystem: %w", err)
	}
	defer f.Close()

	cs, err := fhirconv.ReadCodeSystem(f)
	if err != nil {
		return nil, tx.BadRequest("%s: %v", path, err)
	}
	src, err := fhirconv.FromCodeSystem(cs, opts)
	if err != nil {
		return nil, err
	}
	return &fixture.Dataset{Sources: []fixture.Source{src}}, nil
}

// readBundle imports every CodeSystem of a bundle under its own id and
// version; --mnemonic and --version do not apply.
func readBundle(ctx context.Context, path string, opts fhirconv.SourceOptions) (*fixture.Dataset, error) {
	if opts.Mnemonic != "" || opts.Version != "" {
		return nil, tx.BadRequest("import: --mnemonic and --version cannot be used with --bundle")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	res := stream.Collect(stream.NewBundleReader().Read(ctx, f))
	if res.HasErrors() {
		return nil, tx.BadRequest("%s: %v", path, res.Errors[0])
	}
	logger.Info(res.Summary(), zap.String("bundle", path))

	ds := &fixture.Dataset{}
	for _, cs := range res.CodeSystems {
		src, err := fhirconv.FromCodeSystem(cs, opts)
		if err != nil {
			return nil, err
		}
		ds.Sources = append(ds.Sources, src)
	}
	return ds, nil
}
