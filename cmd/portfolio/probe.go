package main

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Resolve every image through the retry and fallback policy",
		Long: `Load the content documents and try every image they reference, the
hero portrait and each project image, the way the site loads them: the
primary source first, then the fallback if one is configured,
otherwise cache-busted retries of the primary.

Site-relative images are looked up in the static directory; absolute URLs
are requested over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content := a.newContent(nil)
			snap, err := content.Build(cmd.Context())
			if err != nil {
				return err
			}

			images := a.newImages(nil)
			results, err := images.ResolveSnapshot(cmd.Context(), snap)
			if err != nil {
				return errors.Wrap(err, "probe images")
			}

			keys := make([]string, 0, len(results))
			for k := range results {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			failed := 0
			for _, k := range keys {
				res := results[k]
				note := ""
				if res.UsingFallback {
					note = " (fallback)"
				}
				if !res.Available() {
					failed++
				}
				fmt.Fprintf(a.out, "%-7s %s -> %s%s, %d attempts\n", res.Phase, k, res.Source, note, res.Attempts)
			}
			fmt.Fprintf(a.out, "%d images, %d unavailable\n", len(results), failed)
			return nil
		},
	}
}
