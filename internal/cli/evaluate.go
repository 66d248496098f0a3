package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/happyhackingspace/textcat"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var dataFolder string
	var modelPath string

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Measure model accuracy on a folder of labelled pages",
		Example: `  textcat evaluate --data-folder data --model topics.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.loadModel(modelPath)
			if err != nil {
				return err
			}

			slog.Info("Evaluating", "data-folder", dataFolder)
			start := time.Now()
			result, err := cl.Evaluate(dataFolder, &textcat.EvalConfig{Verbose: c.verbose})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			printEvalResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to labelled page folder")
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: TEXTCAT_MODEL or auto-detect)")
	return cmd
}

func printEvalResult(w io.Writer, result *textcat.EvalResult) {
	fmt.Fprintf(w, "Page accuracy: %.1f%% (%d/%d, %d domains)\n",
		result.Accuracy*100, result.Correct, result.Total, result.Domains)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "Unclassified: %d pages\n", result.Skipped)
	}
	fmt.Fprintf(w, "Macro F1: %.1f%%  Weighted F1: %.1f%%\n", result.MacroF1*100, result.WeightedF1*100)

	classes := result.ClassesBySupport()
	printConfusionMatrix(w, result, classes)
	printClassReport(w, result, classes)
}

func printClassReport(w io.Writer, result *textcat.EvalResult, classes []string) {
	fmt.Fprintf(w, "\nPer-class metrics:\n")
	table := newTable(w, []string{"Class", "Prec", "Recall", "F1", "Support"})
	for _, cls := range classes {
		table.Append([]string{
			cls,
			fmt.Sprintf("%.1f%%", result.Precision[cls]*100),
			fmt.Sprintf("%.1f%%", result.Recall[cls]*100),
			fmt.Sprintf("%.1f%%", result.F1[cls]*100),
			fmt.Sprint(result.Support(cls)),
		})
	}
	table.Render()
}

func printConfusionMatrix(w io.Writer, result *textcat.EvalResult, classes []string) {
	if len(result.Confusion) == 0 {
		return
	}

	columns := append(append([]string(nil), classes...), textcat.Unclassified)
	fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	table := newTable(w, append(append([]string{""}, columns...), "total", "acc%"))
	for _, trueClass := range classes {
		row := []string{trueClass}
		correct := result.Confusion[trueClass][trueClass]
		for _, predClass := range columns {
			if count := result.Confusion[trueClass][predClass]; count > 0 {
				row = append(row, fmt.Sprint(count))
			} else {
				row = append(row, ".")
			}
		}
		total := result.Support(trueClass)
		acc := 0.0
		if total > 0 {
			acc = float64(correct) / float64(total) * 100
		}
		row = append(row, fmt.Sprint(total), fmt.Sprintf("%.1f", acc))
		table.Append(row)
	}
	table.Render()
}
