package cli

import (
	"fmt"
	"io"

	"github.com/happyhackingspace/textcat"
	"github.com/happyhackingspace/textcat/transform"
	"github.com/spf13/cobra"
)

func (c *CLI) newInspectCommand() *cobra.Command {
	var modelPath string
	var showClasses bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print model metadata",
		Example: `  textcat inspect --model topics.json
  textcat inspect --classes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.loadModel(modelPath)
			if err != nil {
				return err
			}
			printModelInfo(cmd.OutOrStdout(), cl, showClasses)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: TEXTCAT_MODEL or auto-detect)")
	cmd.Flags().BoolVar(&showClasses, "classes", false, "List every class with its bias and weight count")
	return cmd
}

func printModelInfo(w io.Writer, cl *textcat.Classifier, showClasses bool) {
	info := cl.Info()

	table := newTable(w, []string{"Field", "Value"})
	table.Append([]string{"Version", fmt.Sprint(info.Version)})
	table.Append([]string{"Timestamp", info.Timestamp})
	table.Append([]string{"Locale", info.Locale})
	for i, tr := range info.Transformations {
		table.Append([]string{fmt.Sprintf("Transformation %d", i+1), transform.Describe(tr)})
	}
	table.Append([]string{"Classes", fmt.Sprint(info.Model.NumClasses())})
	table.Append([]string{"Dimension", fmt.Sprint(info.Model.Dim())})
	table.Render()

	if !showClasses {
		return
	}
	fmt.Fprintln(w)
	classes := newTable(w, []string{"Class", "Bias", "Non-zero weights"})
	for _, cls := range info.Model.Classes() {
		weights, _ := info.Model.Weights(cls)
		classes.Append([]string{cls, fmt.Sprintf("%.4f", info.Model.Bias(cls)), fmt.Sprint(weights.Nnz())})
	}
	classes.Render()
}
