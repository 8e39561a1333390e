package vsort

import (
	"os"

	"go.uber.org/zap"

	"github.com/vcfkit/vsort/lineio"
)

const (
	// DefaultMemoryBudget is the estimated record-byte threshold that
	// triggers a spill.
	DefaultMemoryBudget = 100 << 20
	// DefaultMaxOpenRuns bounds how many run files the merge opens at
	// once; beyond it runs are folded in extra passes.
	DefaultMaxOpenRuns = 64
	// DefaultCommentByte marks header/metadata lines.
	DefaultCommentByte = byte('#')
)

// options defines all configuration for a Sorter.
type options struct {
	natural      bool
	memoryBudget int64
	tempDir      string
	maxOpenRuns  int
	comment      byte
	outputBuffer int
	logger       *zap.Logger
}

// Option is a function that configures the sorter options.
type Option func(*options)

// WithNaturalChromosomeOrder selects natural chromosome ordering
// (chr1 < chr2 < chr10) instead of the default lexicographic ordering.
func WithNaturalChromosomeOrder() Option {
	return func(o *options) {
		o.natural = true
	}
}

// WithMemoryBudget sets the chunk size threshold, in bytes, that triggers
// spilling a sorted run to disk.
func WithMemoryBudget(n int64) Option {
	return func(o *options) {
		o.memoryBudget = n
	}
}

// WithTempDir sets the directory spilled runs are written under.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithMaxOpenRuns sets the maximum number of run files merged in a single
// pass.
func WithMaxOpenRuns(n int) Option {
	return func(o *options) {
		o.maxOpenRuns = n
	}
}

// WithCommentByte sets the byte that marks header/metadata lines.
func WithCommentByte(b byte) Option {
	return func(o *options) {
		o.comment = b
	}
}

// WithOutputBufferSize sets the output write buffer size in bytes.
func WithOutputBufferSize(n int) Option {
	return func(o *options) {
		o.outputBuffer = n
	}
}

// WithLogger sets the logger warnings and statistics are reported to.
// Diagnostics never reach the sorted output stream.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		memoryBudget: DefaultMemoryBudget,
		tempDir:      os.TempDir(),
		maxOpenRuns:  DefaultMaxOpenRuns,
		comment:      DefaultCommentByte,
		outputBuffer: lineio.DefaultWriterSize,
		logger:       zap.NewNop(),
	}
}
