// Command vsort sorts a VCF-style tab-delimited stream by chromosome and
// position. Header lines are preserved first, in original order; data
// lines are sorted lexicographically or, with -natural-chr, in natural
// chromosome order (chr1 < chr2 < chr10).
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vcfkit/vsort"
)

const usage = `vsort: sort a VCF by chromosome and position.

Usage:
  vsort [options] [input.vcf] > output.vcf

Reads stdin when no input file is given. A regular-file argument is
memory-mapped and sorted without a per-line copy. Lines beginning with '#'
are header lines and pass through unsorted, before all data lines.

Options:
`

func main() {
	_ = godotenv.Load()

	var (
		natural      = flag.Bool("natural-chr", envBool("VSORT_NATURAL"), "use natural chromosome order (chr1 < chr2 < chr10) instead of lexicographic")
		naturalShort = flag.Bool("n", false, "shorthand for -natural-chr")
		budget       = flag.Int64("memory-budget", envInt64("VSORT_MEMORY_BUDGET", vsort.DefaultMemoryBudget), "estimated record bytes held in memory before spilling")
		tempDir      = flag.String("temp-dir", envString("VSORT_TMP_DIR", os.TempDir()), "directory spilled runs are written under")
		maxOpen      = flag.Int("max-open-runs", vsort.DefaultMaxOpenRuns, "maximum run files merged in one pass")
		verbose      = flag.Bool("v", false, "log progress statistics to stderr")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	opts := []vsort.Option{
		vsort.WithMemoryBudget(*budget),
		vsort.WithTempDir(*tempDir),
		vsort.WithMaxOpenRuns(*maxOpen),
		vsort.WithLogger(logger),
	}
	if *natural || *naturalShort {
		opts = append(opts, vsort.WithNaturalChromosomeOrder())
	}

	sorter, err := vsort.New(opts...)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	if err := sortInput(sorter, flag.Arg(0)); err != nil {
		logger.Error("sort failed", zap.Error(err))
		os.Exit(1)
	}
}

func sortInput(sorter *vsort.Sorter, path string) error {
	if path == "" {
		return sorter.Sort(os.Stdout, os.Stdin)
	}
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return sorter.SortFile(os.Stdout, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return sorter.Sort(os.Stdout, f)
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.InfoLevel
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt64(key string, fallback int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return fallback
}
