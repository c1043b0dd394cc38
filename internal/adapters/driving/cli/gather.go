package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

var (
	gatherForceRefresh bool
	gatherDeadline     time.Duration
	gatherParams       map[string]string
	gatherJSON         bool
	gatherProgress     bool
)

// sourceColumn is the width of the source ID column.
const sourceColumn = 20

var gatherCmd = &cobra.Command{
	Use:   "gather [business-url]",
	Short: "Gather intelligence for a business",
	Long: `Queries every configured source for a business in parallel and prints the
scored bundle. Sources that fail or time out fall back to cached payloads.

The command exits non-zero when too few sources answered or a critical
source has no data; the partial result is still printed.`,
	Example: `  synapse gather acme.com
  synapse gather https://www.acme.com --param location=Austin --deadline 15s
  synapse gather acme.com --force-refresh --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGather,
}

func init() {
	gatherCmd.Flags().BoolVarP(&gatherForceRefresh, "force-refresh", "f", false, "ignore cached payloads")
	gatherCmd.Flags().DurationVarP(&gatherDeadline, "deadline", "d", 0, "overall deadline (default from settings)")
	gatherCmd.Flags().StringToStringVarP(&gatherParams, "param", "p", nil, "query param passed to every source (key=value)")
	gatherCmd.Flags().BoolVar(&gatherJSON, "json", false, "output the bundle as JSON")
	gatherCmd.Flags().BoolVar(&gatherProgress, "progress", false, "print each source as it settles")
	rootCmd.AddCommand(gatherCmd)
}

func runGather(cmd *cobra.Command, args []string) error {
	if gatherer == nil {
		return notConfigured("intelligence service")
	}

	opts := domain.GatherOptions{
		ForceRefresh: gatherForceRefresh,
		Deadline:     gatherDeadline,
		Params:       gatherParams,
	}

	var stopProgress func()
	if gatherProgress && !gatherJSON {
		opts.Events, stopProgress = streamProgress(cmd.ErrOrStderr())
	}

	bundle, err := gatherer.Gather(cmd.Context(), args[0], opts)
	if stopProgress != nil {
		stopProgress()
	}

	insufficient, isInsufficient := domain.IsInsufficientIntelligence(err)
	if err != nil && !isInsufficient {
		return fmt.Errorf("gather failed: %w", err)
	}
	if isInsufficient {
		bundle = insufficient.Bundle
	}

	if bundle != nil {
		if gatherJSON {
			if jsonErr := outputBundleJSON(cmd, bundle); jsonErr != nil {
				return jsonErr
			}
		} else {
			outputBundle(cmd.OutOrStdout(), bundle, terminalWidth())
		}
	}

	return err
}

// streamProgress prints outcomes as they settle until stop is called.
func streamProgress(w io.Writer) (chan<- domain.SourceOutcome, func()) {
	size := 32
	if catalogue != nil && len(catalogue.List()) > size {
		size = len(catalogue.List())
	}
	events := make(chan domain.SourceOutcome, size)
	quit := make(chan struct{})
	done := make(chan struct{})

	show := func(o domain.SourceOutcome) {
		fmt.Fprintf(w, "  %-*s %s\n", sourceColumn, o.SourceID,
			statusStyle(o.Status).Render(o.Status.String()))
	}

	go func() {
		defer close(done)
		for {
			select {
			case o := <-events:
				show(o)
			case <-quit:
				for {
					select {
					case o := <-events:
						show(o)
					default:
						return
					}
				}
			}
		}
	}()

	return events, func() {
		close(quit)
		<-done
	}
}

func outputBundleJSON(cmd *cobra.Command, bundle *domain.IntelligenceBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// outputBundle renders a bundle as a table. Width 0 disables truncation.
func outputBundle(w io.Writer, bundle *domain.IntelligenceBundle, width int) {
	verdict := viableStyle.Render("VIABLE")
	if !bundle.Viable {
		verdict = failingStyle.Render("NOT VIABLE")
	}

	fmt.Fprintf(w, "%s  confidence %.2f  %s\n",
		titleStyle.Render(bundle.BusinessID), bundle.OverallConfidence, verdict)

	usable := fmt.Sprintf("%d/%d sources usable", bundle.UsableCount(), len(bundle.Outcomes))
	if minViable > 0 {
		usable += fmt.Sprintf(", %d required", minViable)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s in %s", usable, bundle.Elapsed.Round(time.Millisecond))))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %-9s %6s %8s  %s",
		sourceColumn, "SOURCE", "STATUS", "SCORE", "COMPLETE", "DETAIL")))

	// Fixed columns take sourceColumn plus 28 characters.
	detailWidth := 0
	if width > 0 {
		detailWidth = width - sourceColumn - 28
		if detailWidth < 10 {
			detailWidth = 10
		}
	}

	for _, o := range bundle.Outcomes {
		status := statusStyle(o.Status).Render(fmt.Sprintf("%-9s", o.Status))
		fmt.Fprintf(w, "%-*s %s %6.1f %7.0f%%  %s\n",
			sourceColumn, truncate(o.SourceID, sourceColumn), status,
			bundle.SourceScores[o.SourceID], o.Completeness*100,
			truncate(outcomeDetail(o), detailWidth))
	}
}

func outcomeDetail(o domain.SourceOutcome) string {
	switch o.Status {
	case domain.StatusSuccess:
		if o.Attempts > 1 {
			return fmt.Sprintf("%s, %d attempts", o.Duration.Round(time.Millisecond), o.Attempts)
		}
		return o.Duration.Round(time.Millisecond).String()
	case domain.StatusCached:
		if o.CacheAge != nil {
			return "age " + o.CacheAge.Round(time.Second).String()
		}
		return "cached"
	case domain.StatusTimedOut:
		return o.Error
	default:
		if o.ErrorKind != "" {
			return fmt.Sprintf("%s: %s", o.ErrorKind, o.Error)
		}
		return o.Error
	}
}
