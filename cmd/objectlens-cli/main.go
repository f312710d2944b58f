package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"yashubustudio/objectlens/detection"
	"yashubustudio/objectlens/internal/logging"
)

type cliOptions struct {
	configPath string
	imagePath  string
	outputPath string
	stdout     bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("objectlens-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("objectlens-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: $OBJECTLENS_CONFIG or ./config.yaml)")
	flag.StringVar(&opts.imagePath, "image", "", "JPEG or PNG image to run detection on")
	flag.StringVar(&opts.outputPath, "output", "", "Optional path to copy the annotated image to (.jpg or .png)")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print every detection row to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --image FILE [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.imagePath = strings.TrimSpace(opts.imagePath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)

	if opts.imagePath == "" {
		flag.Usage()
		return opts, errors.New("missing required --image file")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	if err := detection.LoadEnvFile(""); err != nil {
		return err
	}
	cfg, err := detection.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.Sync()

	store, err := detection.NewStore(cfg.Layout, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	style, err := detection.StyleFromConfig(cfg.Annotate)
	if err != nil {
		return fmt.Errorf("annotate style: %w", err)
	}
	det, err := detection.NewDetector(cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("init detector: %w", err)
	}
	pipe, err := detection.NewPipeline(det, store, style, logger)
	if err != nil {
		_ = det.Close()
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer func() {
		if err := pipe.Close(); err != nil {
			logger.Warn("close detector", zap.Error(err))
		}
	}()

	res, err := pipe.Process(context.Background(), opts.imagePath)
	if err != nil && !errors.Is(err, detection.ErrCSVMissing) {
		return fmt.Errorf("process %s: %w", opts.imagePath, err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if res.Cached {
		fmt.Printf("Using cached result for %s\n", res.Name)
	} else {
		fmt.Printf("Saved %s and %s\n", res.ImagePath, res.CSVPath)
	}
	fmt.Println(detection.FormatClassList(res.Set))

	if opts.stdout {
		printDetections(os.Stdout, res.Set)
	}
	if opts.outputPath != "" {
		if err := exportImage(store, res.Name, opts.outputPath); err != nil {
			return err
		}
		fmt.Printf("Annotated image written to %s\n", opts.outputPath)
	}
	return nil
}

func exportImage(store *detection.Store, name, dest string) error {
	format, err := detection.FormatFromPath(dest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := store.Export(name, f, format); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return err
	}
	return f.Close()
}

func printDetections(w io.Writer, set detection.Set) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==== Detections ====")
	if len(set) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for i, d := range set {
		fmt.Fprintf(w, "%d. %s conf=%.3f box=(%.1f, %.1f, %.1f, %.1f)\n",
			i+1, d.Name, d.Confidence, d.XMin, d.YMin, d.XMax, d.YMax)
	}
}
