// Command patternscan loads a Predicate-Pattern Index from a BadgerDB
// directory and runs one Has-Predicate Scan against it, printing the
// resulting table as a small operational tool over the index.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/qlever-go/patternindex/diag"
	"github.com/qlever-go/patternindex/diskstore"
	"github.com/qlever-go/patternindex/operation"
	"github.com/qlever-go/patternindex/pattern"
	"github.com/qlever-go/patternindex/ragged"
	"github.com/qlever-go/patternindex/scan"
	"github.com/qlever-go/patternindex/vocab"
)

func main() {
	var dbPath string
	var vocabPath string
	var role string
	var mode string
	var term string
	var verbose bool
	var timeout time.Duration
	var cacheMB int
	var workers int

	defaults := operation.DefaultOptions()

	flag.StringVar(&dbPath, "db", "", "BadgerDB-backed pattern index directory")
	flag.StringVar(&vocabPath, "vocab", "", "newline-separated vocabulary names file")
	flag.StringVar(&role, "role", "subject", "index role: subject or object")
	flag.StringVar(&mode, "mode", "free-s", "scan mode: free-s, free-o, full-scan")
	flag.StringVar(&term, "term", "", "bound term for free-s (object) / free-o (subject)")
	flag.BoolVar(&verbose, "verbose", false, "print scan diagnostics")
	flag.DurationVar(&timeout, "timeout", 0, "default query-wide timeout, 0 = none")
	flag.IntVar(&cacheMB, "cache-mb", int(defaults.CacheCapacityBytes>>20), "result cache budget in MiB")
	flag.IntVar(&workers, "workers", defaults.WorkerCount, "worker pool size reserved for parallel operators")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -db <path> -vocab <names file> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs a single Has-Predicate Scan against an on-disk pattern index.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "missing -db")
		flag.Usage()
		os.Exit(2)
	}

	store, err := diskstore.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	r := scan.Subject
	if role == "object" {
		r = scan.Object
	}

	index, err := loadIndex(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load index: %v\n", err)
		os.Exit(1)
	}

	v, err := loadVocab(vocabPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load vocab: %v\n", err)
		os.Exit(1)
	}

	var handler diag.Handler
	if verbose {
		handler = diag.ConsoleHandler()
	}
	collector := diag.NewCollector(handler)

	var node operation.Node
	switch mode {
	case "free-s":
		node = scan.NewFreeS(r, index, v, term)
	case "free-o":
		node = scan.NewFreeO(r, index, v, term)
	case "full-scan":
		node = scan.NewFullScan(r, index)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}

	qec := operation.NewQueryExecutionContext(operation.Options{
		CacheCapacityBytes: uint64(cacheMB) << 20,
		WorkerCount:        workers,
		DefaultTimeout:     timeout,
	})

	ctx := qec.NewExecContext(time.Time{})

	start := time.Now()
	collector.Add(diag.Event{Name: diag.ScanBegin, Start: start, Data: map[string]interface{}{"descriptor": node.Descriptor()}})

	result, err := qec.Cache.GetResult(node, ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	collector.AddTiming(diag.ScanComplete, start, map[string]interface{}{"rows": result.Rows})

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	printTable(result)
}

// loadIndex reads both roles' data at the width recorded in the header,
// boxing the monomorphized RoleData behind pattern.Index. The width
// isn't known until the header is read, so this dispatches over all
// four supported widths exactly once, at startup.
func loadIndex(store *diskstore.Store) (*pattern.Index, error) {
	// Peek the header width via a throwaway Width1 read attempt is not
	// reliable across widths, so read with the broadest type first is
	// wrong too; instead Read is tried at each width until one succeeds
	// validation performed by ragged.Decode, which rejects a mismatched
	// vector width outright.
	if ix, err := tryLoadWidth[uint8](store); err == nil {
		return ix, nil
	}
	if ix, err := tryLoadWidth[uint16](store); err == nil {
		return ix, nil
	}
	if ix, err := tryLoadWidth[uint32](store); err == nil {
		return ix, nil
	}
	return tryLoadWidth[uint64](store)
}

func tryLoadWidth[T ragged.Unsigned](store *diskstore.Store) (*pattern.Index, error) {
	subject, width, err := diskstore.Read[T](store, diskstore.RoleSubject)
	if err != nil {
		return nil, err
	}
	object, _, err := diskstore.Read[T](store, diskstore.RoleObject)
	if err != nil {
		return nil, err
	}
	return pattern.NewIndex(width, subject, object)
}

func loadVocab(path string) (vocab.Vocabulary, error) {
	if path == "" {
		return vocab.NewMemVocabulary(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vocab.NewMemVocabulary(names), nil
}

func printTable(result *operation.ResultTable) {
	headers := make([]string, len(result.Columns))
	for i := range headers {
		headers[i] = "col" + strconv.Itoa(i)
	}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	for r := 0; r < result.Rows; r++ {
		row := make([]string, len(result.Columns))
		for c, col := range result.Columns {
			row[c] = strconv.FormatUint(col[r], 10)
		}
		table.Append(row)
	}
	table.Render()
	fmt.Printf("\n%d rows\n", result.Rows)
}
