package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"RStarDB/config"
	storageengine "RStarDB/storage_engine"
)

// Session carries the configuration and the open engine between commands.
// A one-shot CLI run opens the engine before the command and closes it
// after; the REPL keeps one engine open for the whole session.
type Session struct {
	Engine   *storageengine.StorageEngine
	KeepOpen bool

	configPath string
	overrides  overrides
}

type overrides struct {
	dir        string
	dims       int
	blockSize  int
	maxEntries int
	cache      int
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the rstar command tree bound to sess.
func NewRootCmd(sess *Session) *cobra.Command {
	root := &cobra.Command{
		Use:           "rstar",
		Short:         "Disk-resident R*-tree spatial index",
		Long:          "Maintain an R*-tree index kept in fixed-size blocks next to its data file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return sess.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if sess.KeepOpen {
				return nil
			}
			return sess.Close()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&sess.configPath, "config", "c", "", "config file (default: configs/rstar.yaml or rstar.yaml)")
	f.StringVar(&sess.overrides.dir, "dir", "", "directory holding the data and index files")
	f.IntVar(&sess.overrides.dims, "dims", 0, "dimensions of a new data file")
	f.IntVar(&sess.overrides.blockSize, "block-size", 0, "block size in bytes")
	f.IntVar(&sess.overrides.maxEntries, "max-entries", 0, "entries per node of a new index (0 = fill the block)")
	f.IntVar(&sess.overrides.cache, "cache", -1, "block cache capacity in blocks (0 disables it)")
	f.StringVar(&sess.overrides.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&sess.overrides.logFormat, "log-format", "", "text or json")

	root.AddCommand(
		newBuildCmd(sess),
		newInsertCmd(sess),
		newInspectCmd(sess),
		newVerifyCmd(sess),
		newStatsCmd(sess),
		newReindexCmd(sess),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() {
	sess := &Session{}
	if err := NewRootCmd(sess).Execute(); err != nil {
		sess.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Config loads the config file and applies the flags set on cmd.
func (s *Session) Config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	o := s.overrides
	if flags.Changed("dir") {
		cfg.Storage.Dir = o.dir
	}
	if flags.Changed("dims") {
		cfg.Index.Dimensions = o.dims
	}
	if flags.Changed("block-size") {
		cfg.Storage.BlockSize = o.blockSize
	}
	if flags.Changed("max-entries") {
		cfg.Index.MaxEntries = o.maxEntries
	}
	if flags.Changed("cache") {
		cfg.Cache.CapacityBlocks = o.cache
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	return cfg, cfg.Validate()
}

func (s *Session) open(cmd *cobra.Command) error {
	if s.Engine != nil {
		return nil
	}
	cfg, err := s.Config(cmd)
	if err != nil {
		return err
	}
	se, err := storageengine.Open(cfg, cfg.Log.NewLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	s.Engine = se
	return nil
}

// Close closes the engine if one is open.
func (s *Session) Close() error {
	if s.Engine == nil {
		return nil
	}
	err := s.Engine.Close()
	s.Engine = nil
	return err
}
