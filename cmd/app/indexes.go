package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexumi/nexumi-core/internal/bootstrap"
	"github.com/nexumi/nexumi-core/internal/database/postgres"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
)

func newIndexesCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Print the planned indexes, or create them with --apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, coll := range domain.Collections {
				fmt.Fprintf(out, "%s\n", coll)
				for _, spec := range index.RequiredIndexes(coll) {
					fmt.Fprintf(out, "  %s\n", describe(spec))
				}
			}

			if !apply {
				fmt.Fprintln(out)
				for _, coll := range domain.Collections {
					stmts, err := index.DDL(coll)
					if err != nil {
						return err
					}
					for _, stmt := range stmts {
						fmt.Fprintf(out, "%s;\n", stmt)
					}
				}
				return nil
			}

			pool, err := bootstrap.OpenPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.NewDocuments(pool).EnsureIndexes(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "indexes applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Create missing indexes in the configured database")
	return cmd
}

func describe(spec index.IndexSpec) string {
	fields := make([]string, len(spec.Fields))
	for i, f := range spec.Fields {
		dir := "asc"
		if f.Order == index.Desc {
			dir = "desc"
		}
		fields[i] = f.Path + " " + dir
	}

	var flags []string
	if spec.Unique {
		flags = append(flags, "unique")
	}
	if spec.Sparse {
		flags = append(flags, "sparse")
	}

	line := fmt.Sprintf("%s (%s)", spec.Name, strings.Join(fields, ", "))
	if len(flags) > 0 {
		line += " [" + strings.Join(flags, ",") + "]"
	}
	return line
}
