package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bitcoinecho/node/pkg/bitcoin"
)

const (
	Name    = "bitcoin-echo"
	Version = "0.1.0-dev"
)

const (
	defaultTargetHex = "0000ffff00000000000000000000000000000000000000000000000000000000"
	defaultPrevBlock = "0000000000000000000000000000000000000000000000000000000000000000"
)

var (
	mempoolDir   string
	secondaryDir string
	outputPath   string
	targetHex    string
	prevBlock    string
	timestamp    uint32
	height       int64
	verbose      bool
)

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     Name,
		Short:   "Assemble a candidate block from a local mempool snapshot",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			prevHash, err := bitcoin.NewHash256FromString(prevBlock)
			if err != nil {
				return fmt.Errorf("invalid --prev-block hash: %w", err)
			}

			cfg := bitcoin.PipelineConfig{
				MempoolDir:    mempoolDir,
				SecondaryDir:  secondaryDir,
				OutputPath:    outputPath,
				TargetHex:     targetHex,
				PrevBlockHash: prevHash.Reversed(), // header carries natural order
				Timestamp:     timestamp,
				Height:        height,
			}
			return bitcoin.Run(cfg, log)
		},
	}

	cmd.Flags().StringVar(&mempoolDir, "mempool-dir", "./valid-mempool", "directory of candidate transaction JSON files")
	cmd.Flags().StringVar(&secondaryDir, "secondary-mempool-dir", "./mempool", "optional directory consulted to enrich missing prevout data")
	cmd.Flags().StringVar(&outputPath, "output", "./output.txt", "path to write the assembled block to")
	cmd.Flags().StringVar(&targetHex, "target", defaultTargetHex, "64-hex-character big-endian proof-of-work target")
	cmd.Flags().StringVar(&prevBlock, "prev-block", defaultPrevBlock, "previous block hash, display-order hex")
	cmd.Flags().Uint32Var(&timestamp, "timestamp", 1231006505, "block header timestamp (unix seconds)")
	cmd.Flags().Int64Var(&height, "height", 1, "block height encoded into the coinbase scriptsig")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
