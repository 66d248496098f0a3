package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/happyhackingspace/textcat"
	"github.com/happyhackingspace/textcat/internal/fetch"
	"github.com/happyhackingspace/textcat/internal/textutil"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (c *CLI) newClassifyCommand() *cobra.Command {
	var modelPath string
	var plainText bool
	var render bool
	var table bool
	var minWords, maxWords int

	cmd := &cobra.Command{
		Use:   "classify [url-or-file]",
		Short: "Classify the text of a URL, HTML file, or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Classify a URL directly
  textcat classify https://example.com/news/bitcoin-rally

  # Classify a local HTML file
  textcat classify page.html

  # Pipe HTML content from a file
  cat page.html | textcat classify

  # Pipe a URL from stdin
  echo "https://example.com/news" | textcat classify

  # Classify plain text instead of HTML
  echo "Ethereum and Bitcoin prices ..." | textcat classify --text

  # Render JavaScript pages in headless Chrome first
  textcat classify https://example.com --render

  # Print a table instead of JSON
  textcat classify page.html --table

  # Use custom model file
  textcat classify page.html --model topics.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := fetch.New(fetch.Options{
				Timeout:  c.cfg.FetchTimeout,
				MaxBytes: c.cfg.MaxBodyBytes,
				Render:   render || c.cfg.Render,
			})

			var page fetch.Page
			var err error
			if len(args) == 0 {
				if fetch.IsTerminal(os.Stdin) {
					return cmd.Help()
				}
				slog.Debug("Reading from stdin")
				page, err = f.FromReader(cmd.Context(), os.Stdin)
			} else {
				slog.Debug("Fetching page", "target", args[0])
				page, err = f.Fetch(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			slog.Debug("Page fetched", "source", page.Source, "bytes", len(page.HTML))

			start := time.Now()
			cl, err := c.loadModel(modelPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-words") || cmd.Flags().Changed("max-words") {
				cl.SetWordLimits(minWords, maxWords)
			}
			slog.Debug("Model loaded", "duration", time.Since(start))

			start = time.Now()
			var res textcat.Result
			if plainText {
				res, err = cl.ClassifyText(page.HTML)
			} else {
				res, err = cl.ClassifyHTML(page.HTML)
			}
			if err != nil {
				return err
			}
			slog.Debug("Classification completed", "words", res.Words, "duration", time.Since(start))

			if !res.Classified {
				slog.Warn("Page has too few words to classify", "words", res.Words)
			}
			if !res.LocaleMatch {
				slog.Warn("Page language differs from model locale",
					"language", res.Language.Code, "locale", cl.Info().Locale)
			}

			if table {
				printResultTable(cmd.OutOrStdout(), res)
				return nil
			}
			output, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: TEXTCAT_MODEL or auto-detect)")
	cmd.Flags().BoolVar(&plainText, "text", false, "Treat input as plain text instead of HTML")
	cmd.Flags().BoolVar(&render, "render", false, "Render URLs in headless Chrome before classifying")
	cmd.Flags().BoolVar(&table, "table", false, "Print predictions as a table")
	cmd.Flags().IntVar(&minWords, "min-words", textutil.MinWords, "Minimum words required to classify a page")
	cmd.Flags().IntVar(&maxWords, "max-words", textutil.MaxWords, "Maximum words classified per page (0 for no limit)")
	return cmd
}

func printResultTable(w io.Writer, res textcat.Result) {
	if len(res.Top) == 0 {
		fmt.Fprintln(w, "No class above threshold.")
		return
	}
	table := newTable(w, []string{"Class", "Probability"})
	for _, p := range res.Top {
		table.Append([]string{p.Class, fmt.Sprintf("%.4f", p.Score)})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
