package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"RStarDB/types"
)

func newBuildCmd(sess *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "build [csv-file]",
		Short: "Append the records of a CSV file (id,c1,...,cD) and index them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := sess.Engine.BuildFromCSV(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: indexed %s records in %s\n", report.RunID, humanize.Comma(int64(report.Records)), report.Duration)
			fmt.Fprintf(out, "  height=%d data_blocks=%d index_blocks=%d splits=%d root_splits=%d reinsertions=%d\n",
				report.Height, report.DataBlocks, report.IndexBlocks, report.Tree.Splits, report.Tree.RootSplits, report.Tree.Reinsertions)
			return nil
		},
	}
}

func newInsertCmd(sess *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "insert [id] [c1] ... [cD]",
		Short: "Insert one record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("record id %q: %w", args[0], err)
			}
			rec := types.Record{ID: id, Coordinates: make([]float64, len(args)-1)}
			for i, a := range args[1:] {
				if rec.Coordinates[i], err = strconv.ParseFloat(a, 64); err != nil {
					return fmt.Errorf("coordinate %d %q: %w", i, a, err)
				}
			}

			blocks, err := sess.Engine.InsertRecords([]types.Record{rec})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted record %s into data block %d\n", rec, blocks[0])
			return nil
		},
	}
}

func newInspectCmd(sess *Session) *cobra.Command {
	var entries bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump the index level by level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sess.Engine.Inspect(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVarP(&entries, "entries", "e", false, "list every leaf entry")
	return cmd
}

func newVerifyCmd(sess *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the index invariants against the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := sess.Engine.Verify()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "height=%d nodes=%d leaf_entries=%s\n", report.Height, report.Nodes, humanize.Comma(int64(report.LeafEntries)))
			for level := report.Height; level >= types.LeafLevel; level-- {
				fmt.Fprintf(out, "  level %d: %d nodes\n", level, report.NodesPerLevel[level])
			}
			for _, v := range report.Violations {
				fmt.Fprintf(out, "  violation: %s\n", v)
			}
			if len(report.Orphans) > 0 {
				fmt.Fprintf(out, "  orphan blocks: %v\n", report.Orphans)
			}
			if !report.OK() {
				return fmt.Errorf("index is inconsistent: %d violations, %d orphans: %w", len(report.Violations), len(report.Orphans), types.ErrInvariant)
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
}

func newStatsCmd(sess *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show file, tree and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sess.Engine.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "data:  records=%s blocks=%d size=%s dims=%d\n",
				humanize.Comma(int64(st.Data.TotalRecords)), st.Data.TotalBlocks,
				humanize.IBytes(uint64(st.Data.TotalBlocks)*uint64(st.Data.BlockSize)), st.Data.Dimensions)
			fmt.Fprintf(out, "index: height=%d blocks=%d size=%s max=%d min=%d\n",
				st.Index.Height, st.Index.TotalBlocks,
				humanize.IBytes(uint64(st.Index.TotalBlocks)*uint64(st.Index.BlockSize)), st.Index.MaxEntries, st.Index.MinEntries)
			fmt.Fprintf(out, "tree:  inserts=%d splits=%d root_splits=%d reinsertions=%d reinserted=%d\n",
				st.Tree.Inserts, st.Tree.Splits, st.Tree.RootSplits, st.Tree.Reinsertions, st.Tree.ReinsertedEntries)
			if st.Cache.Enabled {
				fmt.Fprintf(out, "cache: capacity=%d hits=%d misses=%d hit_rate=%.2f\n", st.Cache.Capacity, st.Cache.Hits, st.Cache.Misses, st.Cache.HitRate)
			} else {
				fmt.Fprintln(out, "cache: disabled")
			}
			return nil
		},
	}
}

func newReindexCmd(sess *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the index from the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := sess.Engine.ReindexFromDataFile()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: reindexed %s records, height %d, %d index blocks\n",
				report.RunID, humanize.Comma(int64(report.Records)), report.Height, report.IndexBlocks)
			return nil
		},
	}
}
