package bestfix

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/ngsast/bestfix/internal/ngsast"
)

// Options tunes one engine instance. The zero values of the numeric fields
// are not usable; callers populate them from configuration.
type Options struct {
	SourceDir       string
	AppID           string
	AnchorGap       int
	MaxSnippetLines int
	CheckLabels     []string
	Threads         int
}

// Engine derives best-fix recommendations for a batch of findings. It owns no
// state across batches; the cohort maps live for one ProcessFindings call and
// are handed to the caller.
type Engine struct {
	opts      Options
	extractor *ContextExtractor
	logger    hclog.Logger
}

// NewEngine builds an engine for one app's batch.
func NewEngine(logger hclog.Logger, opts Options) *Engine {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Engine{
		opts: opts,
		extractor: &ContextExtractor{
			SourceDir: opts.SourceDir,
			AppID:     opts.AppID,
			MaxLines:  opts.MaxSnippetLines,
			Logger:    logger,
		},
		logger: logger,
	}
}

// annotatedResult carries one worker's output back to the sequential merge.
type annotatedResult struct {
	annotated     AnnotatedFinding
	firstLocation string
	lastLocation  string
	hasLocations  bool
}

// ProcessFindings runs the full pipeline over a batch. Findings are processed
// independently, in parallel up to Options.Threads; output order always
// follows input order and cohort maps are merged after the workers finish, so
// two runs over the same batch produce identical results. No single finding's
// failure aborts the batch.
func (e *Engine) ProcessFindings(ctx context.Context, findings []ngsast.Finding) ([]AnnotatedFinding, *Cohorts) {
	eligible := make([]ngsast.Finding, 0, len(findings))
	for _, finding := range findings {
		// Sensitive data and log forging findings follow a different
		// remediation class and are not reasoned about here.
		if strings.Contains(finding.Category, "Sensitive") || strings.Contains(finding.Category, "Log") {
			continue
		}
		if finding.Type != "vuln" {
			continue
		}
		eligible = append(eligible, finding)
	}

	results := make([]annotatedResult, len(eligible))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Threads)
	for i := range eligible {
		i := i
		group.Go(func() error {
			results[i] = e.processFinding(groupCtx, eligible[i])
			return nil
		})
	}
	// Workers never return errors; recoverable conditions degrade per finding.
	_ = group.Wait()

	annotated := make([]AnnotatedFinding, 0, len(results))
	cohorts := NewCohorts()
	for _, result := range results {
		annotated = append(annotated, result.annotated)
		if result.hasLocations {
			cohorts.Add(result.annotated.Category, result.firstLocation, result.lastLocation, result.annotated.ID)
		}
	}
	return annotated, cohorts
}

// processFinding normalizes one finding's dataflow, extracts the sink
// snippet and runs the decision cascade.
func (e *Engine) processFinding(ctx context.Context, finding ngsast.Finding) annotatedResult {
	trace := NormalizeDataflow(finding, e.opts.CheckLabels)
	if len(trace.Locations) == 0 {
		e.logger.Debug("finding has no usable dataflow", "finding", finding.ID)
	}

	firstLocation, lastLocation := flowEndpoints(trace.Locations)
	lastFile, lastLine := SplitLocation(lastLocation)

	var snippet, snippetSymbol string
	if lastFile != "" {
		snippet, snippetSymbol = e.extractor.Extract(ctx, lastFile, lastLine, trace.TrackedSymbols)
	}

	decision := Decide(DecisionInput{
		Category:       finding.Category,
		SourceMethod:   trace.SourceMethod,
		SinkMethod:     trace.SinkMethod,
		SnippetSymbol:  snippetSymbol,
		TrackedSymbols: trace.TrackedSymbols,
		Methods:        trace.Methods,
		CheckMethods:   trace.CheckMethods,
		FirstLocation:  firstLocation,
		LastLocation:   lastLocation,
		AnchorGap:      e.opts.AnchorGap,
	})

	return annotatedResult{
		annotated: AnnotatedFinding{
			ID:                   finding.ID,
			Category:             finding.Category,
			Title:                finding.Title,
			VersionFirstSeen:     finding.VersionFirstSeen,
			ScanFirstSeen:        finding.ScanFirstSeen.String(),
			InternalID:           finding.InternalID,
			CVSS31SeverityRating: finding.TagValue("cvss_31_severity_rating"),
			CVSSScore:            finding.TagValue("cvss_score"),
			Reachability:         finding.TagValue("reachability"),
			SourceMethod:         trace.SourceMethod,
			SinkMethod:           trace.SinkMethod,
			LastLocation:         lastLocation,
			VariableDetected:     decision.VariableDetected,
			TrackedList:          strings.Join(trace.TrackedSymbols, "\n"),
			CheckMethods:         strings.Join(trace.CheckMethods, "\n"),
			CodeSnippet:          strings.ReplaceAll(snippet, "\n", "\\n"),
			BestFix:              strings.ReplaceAll(decision.BestFix, "\n", "\\n"),
		},
		firstLocation: firstLocation,
		lastLocation:  lastLocation,
		hasLocations:  len(trace.Locations) > 0,
	}
}

// flowEndpoints picks the presumptive source and sink locations of a trace.
// Markup files are rarely the fix point, so a trailing html location yields
// the sink slot to the location before it when the trace is long enough.
func flowEndpoints(locations []string) (string, string) {
	n := len(locations)
	if n == 0 {
		return "", ""
	}
	last := locations[n-1]
	if strings.Contains(last, "html") && n > 2 {
		last = locations[n-2]
	}
	return locations[0], last
}
