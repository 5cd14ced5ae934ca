package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumenworks/sage/internal/convo"
	"github.com/lumenworks/sage/internal/observability"
	"github.com/lumenworks/sage/internal/persona"
)

// runAsk drives a single question through the orchestrator: route (or
// honor --persona), print the reply, and wait for the video when the
// reply requested one.
func runAsk(cmd *cobra.Command, args []string) error {
	logger := observability.NewLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The store is not released here: ask's whole point is leaving the
	// video file behind at the printed path.
	orc, _, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer orc.Close()

	videoDone := make(chan convo.Turn, 1)
	orc.Subscribe(func(e convo.Event) {
		if e.Kind != convo.EventTurnUpdated {
			return
		}
		if e.Turn.VideoStatus == convo.VideoDone || e.Turn.VideoStatus == convo.VideoError {
			select {
			case videoDone <- e.Turn:
			default:
			}
		}
	})

	question := args[0]

	if flagPersona != "" {
		p, ok := persona.ByID(flagPersona)
		if !ok {
			return fmt.Errorf("unknown persona %q (try 'sage personas')", flagPersona)
		}
		if err := orc.SelectPersona(ctx, p, question); err != nil {
			return err
		}
		fmt.Printf("Asking %s...\n\n", p.Name)
	} else {
		p, ok, err := orc.FindBestPersona(ctx, question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No persona stands out for that question. Pick one with --persona (see 'sage personas').")
			return nil
		}
		fmt.Printf("Routed to %s.\n\n", p.Name)
	}

	turns := orc.Snapshot()
	if len(turns) == 0 {
		return fmt.Errorf("no reply received")
	}
	last := turns[len(turns)-1]
	fmt.Println(last.Text)

	if last.VideoStatus != convo.VideoGenerating || flagNoVideo {
		return nil
	}

	fmt.Println("\nGenerating video (this can take a few minutes, Ctrl-C to skip)...")
	select {
	case t := <-videoDone:
		if t.VideoStatus == convo.VideoError {
			return fmt.Errorf("video generation failed: %s", t.VideoErr)
		}
		fmt.Printf("Video saved to %s\n", t.VideoHandle)
	case <-ctx.Done():
		fmt.Println("Skipped.")
	}
	return nil
}
