// Command aadhaar_extract runs the identity extraction pipeline over PDF files
// from the command line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-aadhaar-reader/internal/config"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/logging"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the command line settings
type options struct {
	workers        int
	format         string
	password       string
	prompt         bool
	reveal         bool
	logLevel       string
	fallbackPolicy string
	maxFileSize    int64
}

// fileResult pairs an input file with its outcome
type fileResult struct {
	File   string             `json:"file"`
	Result *pdf.ExtractResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("aadhaar_extract", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var opts options
	flags.IntVarP(&opts.workers, "workers", "w", 4, "Number of files processed concurrently")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	flags.StringVarP(&opts.password, "password", "p", "", "Password tried on every file")
	flags.BoolVar(&opts.prompt, "prompt", false, "Ask once on stdin for a password when a file cannot be opened")
	flags.BoolVar(&opts.reveal, "reveal", false, "Print full ID numbers in text output")
	flags.StringVar(&opts.logLevel, "loglevel", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.fallbackPolicy, "fallbackpolicy", "strict", "ID acceptance in the fallback tier: strict, lenient")
	flags.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: aadhaar_extract [options] <file.pdf>...\n\n")
		fmt.Fprintf(stderr, "Extracts name, date of birth, gender and Aadhaar number from e-Aadhaar PDFs.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: at least one PDF file is required\n\n")
		flags.Usage()
		return 2
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", opts.format)
		return 2
	}
	if opts.workers < 1 {
		opts.workers = 1
	}

	logger, err := logging.NewWithWriter(opts.logLevel, "cli", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	service, err := newService(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var prompter pdf.PasswordPrompter
	if opts.prompt {
		prompter = newOncePrompter(stdin, stderr)
	}

	results := extractAll(ctx, service, flags.Args(), opts, prompter)

	if err := writeResults(stdout, results, opts); err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}

	for _, r := range results {
		if r.Error != "" || r.Result == nil || !r.Result.Success {
			return 1
		}
	}
	return 0
}

func newService(opts options, logger *zap.Logger) (*pdf.Service, error) {
	cfg := config.DefaultConfig()
	cfg.MaxFileSize = opts.maxFileSize
	cfg.FallbackPolicy = strings.ToLower(opts.fallbackPolicy)
	cfg.LogLevel = opts.logLevel
	if err := cfg.ExtractionOptions().Validate(); err != nil {
		return nil, err
	}
	return pdf.NewService(cfg.ServiceConfig(), logger.Named("pipeline"))
}

// extractAll processes files concurrently, keeping results in input order
func extractAll(ctx context.Context, service *pdf.Service, files []string, opts options,
	prompter pdf.PasswordPrompter,
) []fileResult {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)

	for i, file := range files {
		g.Go(func() error {
			results[i] = extractFile(ctx, service, file, opts.password, prompter)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func extractFile(ctx context.Context, service *pdf.Service, file, password string,
	prompter pdf.PasswordPrompter,
) fileResult {
	data, err := os.ReadFile(file)
	if err != nil {
		return fileResult{File: file, Error: err.Error()}
	}

	result := service.ExtractIdentity(ctx, pdf.ExtractRequest{
		Name:     filepath.Base(file),
		Data:     data,
		Password: password,
	}, prompter)
	return fileResult{File: file, Result: result}
}

func writeResults(w io.Writer, results []fileResult, opts options) error {
	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s: error: %s\n", r.File, r.Error)
		case !r.Result.Success:
			fmt.Fprintf(w, "%s: failed at %s: %s\n", r.File, r.Result.Stage, r.Result.Error)
		default:
			fmt.Fprintf(w, "%s: %s\n", r.File, describe(r.Result.Data, opts.reveal))
		}
	}
	return nil
}

func describe(id *identity.ExtractedIdentity, reveal bool) string {
	number := id.FormattedIDNumber()
	if !reveal && len(id.IDNumber) == 12 {
		number = "XXXX XXXX " + id.IDNumber[8:]
	}
	return fmt.Sprintf("name=%q dob=%s gender=%s aadhaar=%s", id.Name, id.DateOfBirth, id.Gender, number)
}

// oncePrompter asks for a password on the first request and answers every
// later request with the same answer
type oncePrompter struct {
	in  *bufio.Reader
	out io.Writer

	once     sync.Once
	password string
	err      error
}

func newOncePrompter(in io.Reader, out io.Writer) *oncePrompter {
	return &oncePrompter{in: bufio.NewReader(in), out: out}
}

// PromptPassword implements pdf.PasswordPrompter
func (p *oncePrompter) PromptPassword(_ context.Context, documentName string) (string, error) {
	p.once.Do(func() {
		fmt.Fprintf(p.out, "%s is password protected. Password: ", documentName)
		line, err := p.in.ReadString('\n')
		if err != nil && err != io.EOF {
			p.err = err
			return
		}
		p.password = strings.TrimRight(line, "\r\n")
	})
	return p.password, p.err
}
