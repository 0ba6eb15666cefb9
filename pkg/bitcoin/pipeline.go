package bitcoin

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// PipelineConfig bundles everything a run of the block-assembly pipeline
// needs beyond the mempool contents themselves (base spec §6).
type PipelineConfig struct {
	MempoolDir       string
	SecondaryDir     string // optional; "" disables prevout enrichment
	OutputPath       string
	TargetHex        string
	PrevBlockHash    Hash256
	Timestamp        uint32
	Height           int64
}

// verificationResult pairs one loaded transaction with the outcome of
// verifying it, keeping slice position stable across concurrent workers so
// fee-density tie-breaks stay deterministic (base spec §5 concurrency model).
type verificationResult struct {
	tx     *Transaction
	ok     bool
	reason string
}

// Run executes the full base spec §4 pipeline: load candidate transactions,
// verify them (optionally in parallel across runtime.NumCPU() workers),
// assemble a block from whichever candidates pass, and write the result.
func Run(cfg PipelineConfig, log *logrus.Logger) error {
	txs, err := LoadMempoolDir(cfg.MempoolDir, log)
	if err != nil {
		return fmt.Errorf("loading mempool directory: %w", err)
	}
	log.WithField("count", len(txs)).Info("loaded mempool candidates")

	if cfg.SecondaryDir != "" {
		secondary, err := LoadMempoolDir(cfg.SecondaryDir, log)
		if err != nil {
			return fmt.Errorf("loading secondary mempool directory: %w", err)
		}
		idx := NewPrevoutIndex()
		for _, tx := range secondary {
			forms, reason, err := tx.Serialize()
			if err == nil && reason == "" {
				idx.Index(forms.TxID.String(), tx)
			}
		}
		for _, tx := range txs {
			EnrichMissingPrevouts(tx, idx)
		}
		log.WithField("outpoints", idx.Size()).Info("enriched prevouts from secondary mempool")
	}

	results := verifyAll(txs, log)

	candidates := NewCandidateSet()
	for _, r := range results {
		if !r.ok {
			log.WithField("reason", r.reason).Debug("dropping candidate")
			continue
		}
		forms, reason, err := r.tx.Serialize()
		if err != nil {
			log.WithError(err).Warn("dropping candidate: serialization failed")
			continue
		}
		if reason != "" {
			log.WithField("reason", reason).Debug("dropping candidate: guard condition")
			continue
		}
		if forms.Fee < 0 {
			continue
		}
		candidates.Insert(CandidateEntry{
			TxID:   forms.TxID,
			Tx:     r.tx,
			WTxID:  forms.WTxID,
			Weight: forms.Weight,
			Fee:    uint64(forms.Fee),
		})
	}
	log.WithField("count", candidates.Len()).Info("built candidate set")

	assembled, err := AssembleBlock(candidates, cfg.PrevBlockHash, cfg.Timestamp, cfg.TargetHex, cfg.Height)
	if err != nil {
		return fmt.Errorf("assembling block: %w", err)
	}
	log.WithField("txs", len(assembled.TxIDs)).Info("assembled block")

	if err := WriteOutput(cfg.OutputPath, assembled); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	log.WithField("path", cfg.OutputPath).Info("wrote output")
	return nil
}

// verifyAll verifies every transaction across a worker pool sized to
// runtime.NumCPU(), writing each result into its input-ordered slot so
// downstream fee-density ordering never depends on goroutine scheduling
// order (base spec §5).
func verifyAll(txs []*Transaction, log *logrus.Logger) []verificationResult {
	results := make([]verificationResult, len(txs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(txs) {
		workers = len(txs)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ok, reason := VerifyTransaction(txs[i])
				results[i] = verificationResult{tx: txs[i], ok: ok, reason: reason}
			}
		}()
	}

	for i := range txs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
