package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandevgo/hashia/internal/config"
	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/session"
	"github.com/sandevgo/hashia/internal/storage/sqlite"
	"github.com/sandevgo/hashia/internal/ui"
)

var (
	snapshotArchive string
	snapshotUser    string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect saved chat history",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Summarize a chat history snapshot",
	Long: `Prints one line per user of a snapshot file (default: $SNAPSHOT_PATH).
With --archive the latest snapshot of the sqlite archive is read instead.
With --user the turns of that user are printed.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadEnv(); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}

		var (
			snap    core.Snapshot
			takenAt time.Time
			source  string
			err     error
		)

		if snapshotArchive != "" {
			source = snapshotArchive
			snap, takenAt, err = readArchive(cmd, snapshotArchive)
		} else {
			source = config.GetSnapshotPath()
			if len(args) == 1 {
				source = args[0]
			}
			snap, takenAt, err = session.ReadSnapshotFile(source)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.HeaderStyle.Render(fmt.Sprintf("%s taken at %s, %d session(s)", source, takenAt.Format(time.DateTime), len(snap))))

		if snapshotUser != "" {
			return printTurns(out, snap[snapshotUser])
		}
		return printSummary(out, snap)
	},
}

// readArchive opens an existing archive only; NewDB would create and migrate
// an empty one on a mistyped path.
func readArchive(cmd *cobra.Command, path string) (core.Snapshot, time.Time, error) {
	if err := requireFile(path); err != nil {
		return nil, time.Time{}, err
	}

	ctx := cmd.Context()
	db, err := sqlite.NewDB(ctx, path)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer db.Close()

	archive := sqlite.NewArchive(db, 0)
	snap, takenAt, ok, err := archive.Latest(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !ok {
		return nil, time.Time{}, fmt.Errorf("archive %s has no snapshots", path)
	}

	if n, err := archive.Count(ctx); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "archive holds %d snapshot(s), showing the latest\n", n)
	}
	return snap, takenAt, nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive %s does not exist", path)
		}
		return fmt.Errorf("failed to stat archive: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("archive %s is a directory", path)
	}
	return nil
}

func printSummary(out io.Writer, snap core.Snapshot) error {
	users := make([]string, 0, len(snap))
	for userID := range snap {
		users = append(users, userID)
	}
	sort.Strings(users)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tTURNS\tIMAGES\tLAST ACTIVITY")
	for _, userID := range users {
		turns := snap[userID]
		images := 0
		for _, t := range turns {
			for _, p := range t.Parts {
				if p.Image != nil {
					images++
				}
			}
		}
		last := "-"
		if n := len(turns); n > 0 {
			last = turns[n-1].Timestamp.Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", userID, len(turns), images, last)
	}
	return w.Flush()
}

func printTurns(out io.Writer, turns []core.Turn) error {
	for _, t := range turns {
		text := t.Text()
		for _, p := range t.Parts {
			if p.Image != nil {
				text = fmt.Sprintf("[%s image] %s", p.Image.MIMEType, text)
			}
		}
		if _, err := fmt.Fprintf(out, "%s  %-5s  %s\n", t.Timestamp.Format(time.DateTime), t.Role, text); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	snapshotShowCmd.Flags().StringVar(&snapshotArchive, "archive", "", "read the latest snapshot from this sqlite archive")
	snapshotShowCmd.Flags().StringVarP(&snapshotUser, "user", "u", "", "print the turns of one user")
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}
