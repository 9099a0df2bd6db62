package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/application/strategies"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// NewCatalogCommand creates the catalog command with subcommands
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the build type catalog",
		Long:  `Validate the build type catalog and strategies, explore dependencies and print document schemas.`,
	}

	cmd.AddCommand(newCatalogValidateCommand())
	cmd.AddCommand(newCatalogTreeCommand())
	cmd.AddCommand(newCatalogSchemaCommand())

	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	var (
		catalogPath string
		scriptsDir  string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog and compile every strategy against it",
		Long: `Load the catalog, print its contents per race and compile every
builtin and scripted strategy against it.

Examples:
  autobuild catalog validate
  autobuild catalog validate --catalog my_catalog.yaml --scripts ./strategies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RACE\tUNITS\tUPGRADES\tTECH\tWORKER\tSUPPLY\tREFINERY")
			for _, race := range buildtype.Races() {
				counts := map[buildtype.Category]int{}
				for _, t := range catalog.All() {
					if t.Race == race {
						counts[t.Category]++
					}
				}
				roles := catalog.Roles(race)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n", race,
					counts[buildtype.CategoryUnit], counts[buildtype.CategoryUpgrade], counts[buildtype.CategoryTech],
					typeName(roles.Worker), typeName(roles.SupplyDepot), typeName(roles.Refinery))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n✓ Catalog valid: %d types\n", catalog.Len())

			if scriptsDir == "" {
				scriptsDir = loadConfig().Strategy.ScriptsDir
			}
			registry, err := strategies.NewRegistry(scriptsDir)
			if err != nil {
				return fmt.Errorf("failed to load strategies: %w", err)
			}
			failed := 0
			for _, name := range registry.Names() {
				if _, err := registry.Create(name, catalog); err != nil {
					fmt.Fprintf(out, "✗ Strategy %s: %v\n", name, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "✓ Strategy %s\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%d strategies failed to compile", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (default from config)")
	cmd.Flags().StringVar(&scriptsDir, "scripts", "", "Directory of scripted strategies (default from config)")

	return cmd
}

func newCatalogTreeCommand() *cobra.Command {
	var (
		catalogPath  string
		snapshotPath string
		noColor      bool
	)

	cmd := &cobra.Command{
		Use:   "tree <type>",
		Short: "Show what a build type needs",
		Long: `Print the builder and prerequisite tree of a build type. With
--snapshot, types owned in that snapshot are marked and not expanded.

Examples:
  autobuild catalog tree Zerg_Lurker
  autobuild catalog tree Protoss_Carrier --snapshot opening.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			root, err := catalog.Get(args[0])
			if err != nil {
				return err
			}

			var owned func(*buildtype.BuildType) bool
			if snapshotPath != "" {
				doc, err := gamedata.LoadSnapshot(snapshotPath)
				if err != nil {
					return err
				}
				live, err := doc.Live(catalog)
				if err != nil {
					return err
				}
				st := autobuild.FromSnapshot(catalog, live)
				owned = st.Has
			}

			formatter := NewTreeFormatter(!noColor, false)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(root, owned))
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTreeSummary(root, owned))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (default from config)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Mark types owned in this snapshot")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")

	return cmd
}

func newCatalogSchemaCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "schema <catalog|snapshot>",
		Short:     "Print the JSON schema of a document",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{gamedata.SchemaCatalog, gamedata.SchemaSnapshot},
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := gamedata.SchemaFor(args[0])
			if err != nil {
				return err
			}
			data, err := gamedata.MarshalSchema(schema)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func typeName(t *buildtype.BuildType) string {
	if t == nil {
		return "-"
	}
	return t.Name
}
