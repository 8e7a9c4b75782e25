package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"yashubustudio/photoscore/photoscore"
)

// fallbackScore is substituted when the scorer reports a failure. The scorer
// itself never fabricates scores; degrading gracefully is this layer's job.
const fallbackScore = 70.0

type cliOptions struct {
	configPath string
	inputPath  string
	category   string
	outputPath string
	outputDir  string
	stdout     bool
}

type scoredImage struct {
	Path string
	Eval photoscore.Evaluation
	Err  error
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("photoscore-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("photoscore-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.inputPath, "input", "", "Image file or directory of images to score")
	flag.StringVar(&opts.category, "category", string(photoscore.CategoryOther), "Photo category (landscape, cityscape, architecture, nature, sunset, night, other)")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print summary results to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE_OR_DIR [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.category = strings.TrimSpace(opts.category)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input file or directory")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := photoscore.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx := context.Background()
	scorer, err := photoscore.Shared(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init scorer: %w", err)
	}
	defer scorer.Close()

	images, err := collectImages(opts.inputPath)
	if err != nil {
		return fmt.Errorf("collect images: %w", err)
	}
	if len(images) == 0 {
		return errors.New("input does not contain any images")
	}

	category := photoscore.ParseCategory(opts.category)
	results := make([]scoredImage, 0, len(images))
	for _, path := range images {
		eval, err := scorer.Evaluate(ctx, path, category)
		if err != nil {
			logger.Printf("評価に失敗しました (%s): %v", path, err)
			eval = photoscore.Evaluation{
				Score:     fallbackScore,
				Breakdown: photoscore.Breakdown{Note: err.Error()},
				Method:    "fallback",
			}
		}
		results = append(results, scoredImage{Path: path, Eval: eval, Err: err})
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, category, results); err != nil {
		return err
	}
	fmt.Printf("採点結果を %s に保存しました\n", outputPath)

	if opts.stdout {
		printSummary(results)
	}
	return nil
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

func collectImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var images []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(p))] {
			images = append(images, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, category photoscore.Category, results []scoredImage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"ファイル", "カテゴリ", "スコア", "評価方式", "判定", "備考"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, res := range results {
		note := res.Eval.Breakdown.Note
		row := []string{
			res.Path,
			string(category),
			fmt.Sprintf("%.1f", res.Eval.Score),
			res.Eval.Method,
			string(res.Eval.Breakdown.Tier),
			note,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}

func printSummary(results []scoredImage) {
	fmt.Println()
	fmt.Println("==== 採点結果プレビュー ====")
	for i, res := range results {
		fmt.Printf("%d. %s\n", i+1, filepath.Base(res.Path))
		if res.Err != nil {
			fmt.Printf("      スコア: %.1f (既定値) エラー: %v\n", res.Eval.Score, res.Err)
			continue
		}
		fmt.Printf("      スコア: %.1f (%s)\n", res.Eval.Score, res.Eval.Method)
		if res.Eval.Breakdown.Tier != "" {
			fmt.Printf("      判定: %s 重み付き生スコア: %.3f\n", res.Eval.Breakdown.Tier, res.Eval.Breakdown.WeightedRaw)
		}
	}
}
