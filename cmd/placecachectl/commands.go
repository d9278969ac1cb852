package main

import (
	"fmt"
	"net/http"
	"strconv"
	"text/tabwriter"
	"time"

	apihttp "PlaceCache/internal/http"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		lat, lng float64
		query    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search places around a point through the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]string{
				"lat": strconv.FormatFloat(lat, 'f', -1, 64),
				"lng": strconv.FormatFloat(lng, 'f', -1, 64),
			}
			if query != "" {
				params["query"] = query
			}
			if limit > 0 {
				params["limit"] = strconv.Itoa(limit)
			}

			var resp models.PlaceSearchResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/places/search", params, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:    %s\nSource: %s (hits %d)\nTotal:  %d\n\n", resp.Key, resp.Source, resp.Hits, resp.Total)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISTANCE\tLOCALITY")
			for _, p := range resp.Places {
				fmt.Fprintf(tw, "%s\t%dm\t%s\n", p.Name, p.Distance, p.Location.Locality)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in decimal degrees")
	cmd.Flags().StringVar(&query, "query", "", "search term or category")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of places to show")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the place cache",
	}

	cmd.AddCommand(
		newCacheStatsCmd(opts),
		newCacheEntriesCmd(opts),
		newCacheClearCmd(opts),
	)

	return cmd
}

func newCacheStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per tier cache counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats models.CacheStats
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/cache/stats", nil, &stats); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Memory entries:  %d\nMemory hits:     %d\nPersistent hits: %d\nMisses:          %d\nOrigin calls:    %d\nOrigin failures: %d\nStore faults:    %d\nInvalidations:   %d\n",
				stats.MemoryEntries, stats.MemoryHits, stats.PersistentHits, stats.Misses,
				stats.OriginCalls, stats.OriginFailures, stats.StoreFaults, stats.Invalidations)
			return nil
		},
	}
}

func newCacheEntriesCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		page   int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List live persistent cache entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]string{}
			if limit > 0 {
				params["limit"] = strconv.Itoa(limit)
			}
			if page > 1 {
				params["page"] = strconv.Itoa(page)
			}
			if cursor != "" {
				params["cursor"] = cursor
			}

			var resp pagination.Page[models.CacheEntrySummary]
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/cache/entries", params, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tHITS\tBYTES\tCREATED\tEXPIRES")
			for _, e := range resp.Items {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", e.Key, e.Hits, e.Size,
					e.CreatedAt.Format(time.RFC3339), e.ExpiresAt.Format(time.RFC3339))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if resp.Pagination.HasMore && resp.Pagination.NextCursor != nil {
				fmt.Fprintf(out, "\nMore entries: --cursor %s\n", *resp.Pagination.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default when omitted)")
	cmd.Flags().IntVar(&page, "page", 1, "page number, ignored with --cursor")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue after the cursor printed by a previous call")

	return cmd
}

func newCacheClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from both cache tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp models.ClearCacheResponse
			if err := opts.client().do(cmd.Context(), http.MethodDelete, "/api/cache", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp apihttp.HealthResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/health", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s)\n", resp.Status, resp.Version)
			return nil
		},
	}
}
