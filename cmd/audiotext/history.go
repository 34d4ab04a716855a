package main

import (
	"fmt"
	"log"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Danondso/audiotext/internal/pipeline"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions",
	Long: `Lists the most recent conversions, newest first.

Examples:
  audiotext history
  audiotext history show 1
  audiotext history clear`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversions",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <n>",
	Short: "Print the full transcript of entry n (1 is the newest)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := loadHistory(newLogger())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if store.Len() == 0 {
		fmt.Fprintln(out, "History is empty.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tWHEN\tFILE\tLANG\tLENGTH\tPREVIEW")
	for i, e := range store.Entries() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Filename,
			e.Language,
			(time.Duration(e.DurationSec * float64(time.Second))).Round(time.Second),
			e.TextPreview,
		)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid entry number %q", args[0])
	}
	store, err := loadHistory(newLogger())
	if err != nil {
		return err
	}
	e, ok := store.Get(n - 1)
	if !ok {
		return fmt.Errorf("no history entry %d (have %d)", n, store.Len())
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:       %s\n", e.Filename)
	fmt.Fprintf(out, "When:       %s\n", e.Timestamp.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Language:   %s\n", e.Language)
	fmt.Fprintf(out, "Confidence: %.0f%%\n", e.Confidence*100)
	fmt.Fprintln(out)
	fmt.Fprintln(out, e.FullText)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := loadHistory(newLogger())
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

// recordHistory appends a finished headless conversion to the history file.
// Failures are logged only.
func recordHistory(dbg *log.Logger, source string, o pipeline.Outcome) {
	store, err := loadHistory(dbg)
	if err != nil {
		dbg.Printf("history: load: %v", err)
		return
	}
	if err := store.Add(source, o.Text, o.Duration, o.LanguageLabel(), o.Confidence); err != nil {
		dbg.Printf("history: append: %v", err)
	}
}
