package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukman83/pkdeals/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text...>",
	Short: "Show the gender and category detected for a product text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	fmt.Fprintf(os.Stdout, "Normalized: %s\n", classify.Normalize(text))
	fmt.Fprintf(os.Stdout, "Gender:     %s\n", orDash(classify.DetectGender(text)))
	fmt.Fprintf(os.Stdout, "Category:   %s\n", orDash(classify.DetectCategory(text)))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
