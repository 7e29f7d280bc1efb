package bestfix

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
)

// ContextExtractor pulls a bounded window of source text around a location.
// A missing or unreadable file is a recoverable condition: the finding simply
// loses its snippet, never the whole report.
type ContextExtractor struct {
	SourceDir string
	AppID     string
	MaxLines  int
	Logger    hclog.Logger
}

// Extract returns up to MaxLines of code centered on the given line, each
// prefixed with its 1-based line number, plus the first tracked symbol found
// in the window (spaced out for visibility). Symbols are tried in trail order.
func (e *ContextExtractor) Extract(ctx context.Context, fileName string, line int, symbols []string) (string, string) {
	if fileName == "" {
		return "", ""
	}

	fullPath, ok := e.resolvePath(fileName)
	if !ok {
		e.Logger.Warn("unable to locate the file", "file", fileName, "source_dir", e.SourceDir)
		return "", ""
	}

	maxLines := e.MaxLines
	if maxLines < 1 {
		maxLines = 1
	}
	lmin := line - maxLines/2
	if lmin < 1 {
		lmin = 1
	}

	lines, err := readLineWindow(ctx, fullPath, lmin, maxLines, e.Logger)
	if err != nil {
		// Lines read before the failure still make a useful snippet.
		e.Logger.Warn("failed to read the full code context", "file", fullPath, "error", err)
	}
	if len(lines) == 0 {
		return "", ""
	}

	var b strings.Builder
	for i, text := range lines {
		fmt.Fprintf(&b, "%d %s\n", lmin+i, text)
	}
	snippet := b.String()

	symbol := DetectSymbol(snippet, symbols)
	if symbol != "" {
		snippet = SpaceSymbol(snippet, symbol)
	}
	return snippet, symbol
}

// resolvePath locates fileName under the source tree. For monorepos the app
// can live in a subdirectory named after its id; Java and Scala projects keep
// sources under the conventional src/main layout.
func (e *ContextExtractor) resolvePath(fileName string) (string, bool) {
	sourceDir := e.SourceDir
	if e.AppID != "" {
		appPath := filepath.Join(sourceDir, e.AppID)
		if info, err := os.Stat(appPath); err == nil && info.IsDir() {
			sourceDir = appPath
		}
	}

	candidates := []string{
		filepath.Join(sourceDir, fileName),
		filepath.Join(sourceDir, "src", "main", "java", fileName),
		filepath.Join(sourceDir, "src", "main", "scala", fileName),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// readLineWindow reads up to count lines starting at start (1-based) without
// loading the whole file. Lines that are not valid UTF-8 fall back to a
// byte-preserving sanitized form instead of aborting the report.
func readLineWindow(ctx context.Context, path string, start, count int, logger hclog.Logger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		lineNo++
		if lineNo < start {
			continue
		}
		text := scanner.Text()
		if !utf8.ValidString(text) {
			logger.Debug("file is not valid utf-8, falling back to byte mode", "file", path, "line", lineNo)
			text = strings.ToValidUTF8(text, "")
		}
		lines = append(lines, text)
		if len(lines) >= count {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}
