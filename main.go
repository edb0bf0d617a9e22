package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type options struct {
	path       string
	dumpTokens bool
	jobs       int
}

func removeExtension(filePath string) string {
	extension := filepath.Ext(filePath)
	return filePath[:len(filePath)-len(extension)]
}

func getClassName(filePath string) string {
	return removeExtension(filepath.Base(filePath))
}

func getOutputPath(filePath string) string {
	return removeExtension(filePath) + ".vm"
}

func getTokensPath(filePath string) string {
	return removeExtension(filePath) + "T.xml"
}

// compileFile compiles one unit. Nothing is written to w unless compilation succeeds.
func compileFile(tokenizer *Tokenizer, w io.Writer, logger *Logger) (className string, err error) {
	writer := NewVMWriter()
	compiler := NewJackCompiler(tokenizer, writer, logger)
	if err := compiler.Compile(); err != nil {
		return compiler.className, err
	}
	if _, err := writer.WriteTo(w); err != nil {
		return compiler.className, fmt.Errorf("writing vm code: %w", err)
	}
	return compiler.className, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	output, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("could not open output file %q for writing: %w", path, err)
	}
	if err := write(output); err != nil {
		output.Close()
		return err
	}
	return output.Close()
}

func processFile(path string, opts options, logger *Logger) (outputPath string, err error) {
	handle, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open file %q for reading: %w", path, err)
	}
	tokenizer, err := NewTokenizerFromReader(handle)
	handle.Close()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	if opts.dumpTokens {
		tokensPath := getTokensPath(path)
		if err := writeFile(tokensPath, func(w io.Writer) error { return WriteTokensXML(w, tokenizer) }); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("Saved tokens as %q", tokensPath)
		tokenizer.Reset()
	}

	var code bytes.Buffer
	className, err := compileFile(tokenizer, &code, logger)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if className != getClassName(path) {
		logger.Warning("%s: class %q does not match its file name", path, className)
	}

	outputPath = getOutputPath(path)
	err = writeFile(outputPath, func(w io.Writer) error {
		_, err := code.WriteTo(w)
		return err
	})
	return outputPath, err
}

func collectFiles(fileOrDir string) (files []string, err error) {
	fileOrDirStat, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file/dir %q: %w", fileOrDir, err)
	}

	if !fileOrDirStat.IsDir() {
		if filepath.Ext(fileOrDir) != ".jack" {
			return nil, fmt.Errorf("%q is not a .jack file", fileOrDir)
		}
		return []string{fileOrDir}, nil
	}

	dirEntries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("could not open directory %q: %w", fileOrDir, err)
	}
	for _, entry := range dirEntries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .jack files in %q", fileOrDir)
	}
	return files, nil
}

// compileAll compiles every unit independently. A failing unit does not stop the others;
// the first failure is returned once all units are done.
func compileAll(files []string, opts options, logger *Logger) error {
	var g errgroup.Group
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for _, file := range files {
		file := file
		g.Go(func() error {
			logger.Info("Compiling file %q", file)
			outputPath, err := processFile(file, opts, logger)
			if err != nil {
				logger.Error("Failed to compile %s", err)
				return err
			}
			logger.Info("Saved as %q", outputPath)
			return nil
		})
	}
	return g.Wait()
}

func main() {
	var opts options
	flag.StringVar(&opts.path, "d", "", ".jack file to compile or directory containing .jack files")
	flag.BoolVar(&opts.dumpTokens, "tokens", false, "also write the token stream of each file as <Name>T.xml")
	flag.IntVar(&opts.jobs, "j", runtime.GOMAXPROCS(0), "number of files compiled in parallel")
	verbose := flag.Bool("v", false, "log parser and symbol table activity")
	flag.Parse()

	if opts.path == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := LogLevelInfo
	if *verbose {
		level = LogLevelDebug
	}
	logger := NewLogger("[jack2vm]", level)

	files, err := collectFiles(opts.path)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := compileAll(files, opts, logger); err != nil {
		logger.PrintSummary()
		os.Exit(1)
	}
}
