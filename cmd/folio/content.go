package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/folio/bootstrap"
	"github.com/kbukum/folio/content"
	"github.com/kbukum/folio/site"
)

type contentOptions struct {
	platform string
	format   string
}

func newContentCmd(root *rootOptions) *cobra.Command {
	opts := &contentOptions{}
	cmd := &cobra.Command{
		Use:   "content <projects|videos|images>",
		Short: "Fetch a content collection and print it",
		Long: `Fetch one collection from the content store, validated and ordered the
same way the API serves it.

Examples:
  folio content projects
  folio content videos --platform sora
  folio content images -p midjourney -f json`,
		ValidArgs: []string{"projects", "videos", "images"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContent(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "only videos or images made with this platform")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format (table, json)")
	return cmd
}

func runContent(cmd *cobra.Command, root *rootOptions, opts *contentOptions, kind string) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q (supported: table, json)", opts.format)
	}
	if kind == "projects" && opts.platform != "" {
		return fmt.Errorf("--platform applies to videos and images only")
	}

	cfg, err := root.load()
	if err != nil {
		return err
	}
	// Keep stdout for the collection itself.
	cfg.Logging.Output = "stderr"

	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return err
	}
	svc, err := site.NewContent(app)
	if err != nil {
		return err
	}

	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		docs, rows, err := fetchCollection(ctx, svc, kind, opts.platform)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if opts.format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}
		return printTable(out, kind, rows)
	})
}

type contentRow struct {
	rank  float64
	id    string
	title string
	group string
}

func fetchCollection(ctx context.Context, svc *content.Service, kind, platform string) (any, []contentRow, error) {
	switch kind {
	case "projects":
		projects, err := svc.Projects(ctx)
		rows := make([]contentRow, len(projects))
		for i, p := range projects {
			rows[i] = contentRow{p.OrderRank, p.ID, p.Title, p.Category}
		}
		return projects, rows, err
	case "videos":
		videos, err := svc.VideosByPlatform(ctx, platform)
		rows := make([]contentRow, len(videos))
		for i, v := range videos {
			rows[i] = contentRow{v.OrderRank, v.ID, v.Title, v.Platform}
		}
		return videos, rows, err
	case "images":
		images, err := svc.ImagesByPlatform(ctx, platform)
		rows := make([]contentRow, len(images))
		for i, img := range images {
			rows[i] = contentRow{img.OrderRank, img.ID, img.Title, img.Platform}
		}
		return images, rows, err
	}
	return nil, nil, fmt.Errorf("unknown collection %q", kind)
}

func printTable(w io.Writer, kind string, rows []contentRow) error {
	group := "PLATFORM"
	if kind == "projects" {
		group = "CATEGORY"
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tID\tTITLE\t%s\n", group)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strconv.FormatFloat(r.rank, 'f', -1, 64), r.id, r.title, r.group)
	}
	return tw.Flush()
}
