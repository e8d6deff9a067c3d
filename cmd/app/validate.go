package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/validation"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <collection> <file>",
		Short: "Check a JSON document against a collection's schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := domain.Collection(args[0])
			if !coll.Valid() {
				return fmt.Errorf("unknown collection %q", args[0])
			}

			registry, err := validation.NewRegistry()
			if err != nil {
				return err
			}

			err = registry.ValidateFile(coll, args[1])
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				out := cmd.OutOrStdout()
				fields := make([]string, 0, len(verr.Fields))
				for f := range verr.Fields {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fmt.Fprintf(out, "%s: %s\n", f, verr.Fields[f])
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid %s document\n", args[1], coll)
			return nil
		},
	}
}
