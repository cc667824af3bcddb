package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/debforge/internal/config"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Maximum number of records to show" default:"20"`
	JSON  bool `help:"Emit records as JSON"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.History.Disabled {
		return fmt.Errorf("build history is disabled in configuration")
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	records, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPACKAGE\tVERSION\tARCH\tDIST\tSTATUS\tPUBLISHED\tDURATION")
	for _, r := range records {
		published := ""
		if r.Published {
			published = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%dms\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Package, r.Version, r.Architecture, r.Distribution,
			r.Status, published, r.DurationMS)
	}
	return w.Flush()
}
