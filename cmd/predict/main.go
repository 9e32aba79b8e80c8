// Command predict scores one patient record given as a JSON argument and
// prints the rounded adherence prediction. Errors go to stderr with exit 1.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/config"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
)

func main() {
	logger.InitWithOutput(os.Stderr)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	artifactDir := fs.String("artifacts", cfg.ArtifactDir, "Artifact directory")
	version := fs.String("version", cfg.ArtifactVersion, "Bundle version (empty for latest)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: predict [-artifacts dir] [-version v] '<patient record json>'\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	record, err := predictor.DecodeRecord([]byte(fs.Arg(0)))
	if err != nil {
		return fail(stderr, err)
	}
	p, err := predictor.Load(*artifactDir, *version)
	if err != nil {
		return fail(stderr, err)
	}
	value, err := p.Predict(record)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintf(stdout, "%.2f\n", value)
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error (%s): %v\n", apperr.KindOf(err), err)
	return 1
}
