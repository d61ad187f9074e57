package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"registry-pruner/internal/core"
	"registry-pruner/internal/types"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify TAG...",
		Short: "Show how image tags are classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printClassification(cmd.OutOrStdout(), args)
		},
	}
}

func printClassification(out io.Writer, tags []string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tKIND\tDETAIL")
	for _, tag := range tags {
		parsed := core.ClassifyTag(tag)
		fmt.Fprintf(w, "%s\t%s\t%s\n", tag, parsed.Kind, classificationDetail(parsed))
	}
	return w.Flush()
}

func classificationDetail(parsed types.ParsedTag) string {
	switch parsed.Kind {
	case types.TagKindBranchBuild:
		return fmt.Sprintf("branch=%s build=%d", parsed.Branch, parsed.BuildNo)
	case types.TagKindVersion:
		return fmt.Sprintf("version=%d.%d.%d", parsed.Major, parsed.Minor, parsed.Patch)
	case types.TagKindReleaseCandidate:
		return fmt.Sprintf("version=%d.%d.%d rc=%d", parsed.Major, parsed.Minor, parsed.Patch, parsed.BuildNo)
	default:
		return "-"
	}
}
