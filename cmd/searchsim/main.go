package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/config"
	"github.com/liliang-cn/searchsim/internal/docwrite"
	"github.com/liliang-cn/searchsim/internal/obslog"
	"github.com/liliang-cn/searchsim/internal/queryexec"
	"github.com/liliang-cn/searchsim/internal/value"
	"github.com/liliang-cn/searchsim/pkg/engine"
)

var (
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "searchsim",
	Short: "Local developer simulator of a managed cloud search service",
	Long:  `searchsim drives a local index catalog, document pipeline and indexer runtime for development against a managed-search-shaped API, without a cloud subscription.`,
}

func openEngine() (*engine.Engine, error) {
	lvl := obslog.LevelInfo
	if verbose {
		lvl = obslog.LevelDebug
	}
	cfg := config.ServerConfig{DataDir: dataDir}
	return engine.New(context.Background(), cfg, obslog.NewStd(lvl))
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage index definitions",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create <definition.json>",
	Short: "Create an index from a JSON definition file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var def catalog.IndexDef
		if err := readJSONFile(args[0], &def); err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		saved, err := e.CreateIndex(context.Background(), def)
		if err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		fmt.Printf("index %q created\n", saved.Name)
		return nil
	},
}

var indexGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print an index definition as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		def, err := e.GetIndex(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(def)
	},
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every index definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		defs, err := e.ListIndexes(context.Background())
		if err != nil {
			return err
		}
		return printJSON(defs)
	},
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an index and its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.DeleteIndex(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("index %q deleted\n", args[0])
		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Print document count and storage size for an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.IndexStats(args[0])
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var serviceStatsCmd = &cobra.Command{
	Use:   "servicestats",
	Short: "Print document and storage totals across every index",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		return printJSON(e.ServiceStats())
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs <index> <batch.json>",
	Short: "Apply a document batch (upload/merge/mergeOrUpload/delete actions) to an index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexName := args[0]

		var raw []struct {
			ActionKind string         `json:"@search.action"`
			Fields     map[string]any `json:"fields"`
		}
		if err := readJSONFile(args[1], &raw); err != nil {
			return err
		}

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		def, err := e.GetIndex(context.Background(), indexName)
		if err != nil {
			return err
		}

		actions := make([]docwrite.Action, len(raw))
		for i, r := range raw {
			kind := docwrite.ActionKind(r.ActionKind)
			if kind == "" {
				kind = docwrite.ActionMergeOrUpload
			}
			doc := make(map[string]value.Value, len(r.Fields))
			for name, v := range r.Fields {
				f, ok := def.FieldByName(name)
				if !ok {
					continue
				}
				doc[f.Name] = value.FromAny(f.Type, v)
			}
			actions[i] = docwrite.Action{Kind: kind, Doc: doc}
		}

		results, err := e.WriteDocuments(context.Background(), indexName, actions)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <index>",
	Short: "Run a search query against an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		filterExpr, _ := cmd.Flags().GetString("filter")
		top, _ := cmd.Flags().GetInt("top")
		skip, _ := cmd.Flags().GetInt("skip")

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		resp, err := e.Search(context.Background(), args[0], queryexec.Request{
			SearchText: text,
			Filter:     filterExpr,
			Top:        top,
			Skip:       skip,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		return printJSON(resp)
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <index> <suggester> <prefix>",
	Short: "Run a suggest query against a named suggester",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		hits, err := e.Suggest(context.Background(), args[0], args[1], args[2], top, nil)
		if err != nil {
			return err
		}
		return printJSON(hits)
	},
}

var datasourceCmd = &cobra.Command{
	Use:   "datasource <definition.json>",
	Short: "Create or replace a data source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ds catalog.DataSource
		if err := readJSONFile(args[0], &ds); err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		saved, err := e.Catalog.PutDataSource(context.Background(), ds, "")
		if err != nil {
			return err
		}
		fmt.Printf("data source %q saved\n", saved.Name)
		return nil
	},
}

var skillsetCmd = &cobra.Command{
	Use:   "skillset <definition.json>",
	Short: "Create or replace a skillset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ss catalog.Skillset
		if err := readJSONFile(args[0], &ss); err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		saved, err := e.Catalog.PutSkillset(context.Background(), ss, "")
		if err != nil {
			return err
		}
		fmt.Printf("skillset %q saved\n", saved.Name)
		return nil
	},
}

var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Manage and run indexers",
}

var indexerPutCmd = &cobra.Command{
	Use:   "put <definition.json>",
	Short: "Create or replace an indexer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var idx catalog.Indexer
		if err := readJSONFile(args[0], &idx); err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		saved, err := e.Catalog.PutIndexer(context.Background(), idx, "")
		if err != nil {
			return err
		}
		fmt.Printf("indexer %q saved\n", saved.Name)
		return nil
	},
}

var indexerRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run an indexer once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := e.RunIndexer(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "Catalog and index data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	indexCmd.AddCommand(indexCreateCmd, indexGetCmd, indexListCmd, indexDeleteCmd, indexStatsCmd)

	searchCmd.Flags().String("text", "", "Search text")
	searchCmd.Flags().String("filter", "", "OData-style filter expression")
	searchCmd.Flags().Int("top", 10, "Number of results")
	searchCmd.Flags().Int("skip", 0, "Results to skip")

	suggestCmd.Flags().Int("top", 5, "Number of suggestions")

	indexerCmd.AddCommand(indexerPutCmd, indexerRunCmd)

	rootCmd.AddCommand(
		indexCmd,
		docsCmd,
		searchCmd,
		suggestCmd,
		datasourceCmd,
		skillsetCmd,
		indexerCmd,
		serviceStatsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
