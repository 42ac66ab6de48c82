package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/linuxmatters/autocut/internal/audio"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ClipResult is the outcome of extracting one segment
type ClipResult struct {
	Index   int // zero-based segment index
	Segment Segment
	Name    string // clip file name
	Path    string // clip file path
	Err     error  // nil on success
}

// OK reports whether the clip was created
func (r ClipResult) OK() bool {
	return r.Err == nil
}

// ClipEvent reports a clip starting (Done false) or finishing (Done true)
type ClipEvent struct {
	Index   int
	Total   int
	Name    string
	Segment Segment
	Done    bool
	Err     error
}

// ClipFunc receives clip events. It is called from worker goroutines and
// must be safe for concurrent use.
type ClipFunc func(ClipEvent)

// Extraction is the outcome of ExtractSegments
type Extraction struct {
	Dir          string
	ManifestPath string
	Results      []ClipResult // indexed like the input segments
	Succeeded    int
}

// Extractor cuts segments out of an input file on a bounded worker pool
type Extractor struct {
	cutter  audio.Cutter
	workers int
	opts    Options
	log     logrus.FieldLogger

	// Out receives the manifest printout of a verbose dry run. Optional.
	Out io.Writer
	// Clip receives per-clip events. Optional.
	Clip ClipFunc
}

// NewExtractor creates an extractor running at most workers cuts at once.
// A non-positive worker count falls back to DefaultWorkers.
func NewExtractor(cutter audio.Cutter, workers int, opts Options, log logrus.FieldLogger) *Extractor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Extractor{
		cutter:  cutter,
		workers: workers,
		opts:    opts,
		log:     log,
	}
}

// createManifest is replaced in tests
var createManifest = CreateManifest

// ExtractSegments creates a fresh clip directory, cuts every segment into it
// and records each outcome in the manifest. A failed cut is logged and
// recorded; it never stops the other cuts.
func (e *Extractor) ExtractSegments(ctx context.Context, input string, segments []Segment, naming Naming) (*Extraction, error) {
	dir, err := os.MkdirTemp(naming.OutputDir, naming.DirPattern())
	if err != nil {
		return nil, fmt.Errorf("failed to create clips directory: %w", err)
	}
	e.log.Infof("created clips directory: %s", dir)

	manifest, err := createManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		_ = os.Remove(dir)
		return nil, err
	}

	extraction := &Extraction{
		Dir:          dir,
		ManifestPath: manifest.Path(),
		Results:      make([]ClipResult, len(segments)),
	}

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, seg := range segments {
		name := naming.ClipName(i, len(segments))
		g.Go(func() error {
			extraction.Results[i] = e.extractOne(ctx, input, i, len(segments), seg, name, dir, manifest)
			return nil
		})
	}
	_ = g.Wait()

	extraction.Succeeded = manifest.Succeeded()
	if err := manifest.Close(); err != nil {
		e.log.WithError(err).Warn("failed to close manifest")
	}

	if e.opts.DryRun {
		if e.opts.Verbose && e.Out != nil {
			e.printManifest(extraction.ManifestPath)
		}
		// Best effort: a dry run leaves nothing behind
		_ = os.Remove(extraction.ManifestPath)
		_ = os.Remove(dir)
	}

	return extraction, nil
}

// extractOne runs one cut and records it in the manifest
func (e *Extractor) extractOne(ctx context.Context, input string, index, total int, seg Segment, name, dir string, manifest *Manifest) ClipResult {
	result := ClipResult{
		Index:   index,
		Segment: seg,
		Name:    name,
		Path:    filepath.Join(dir, name),
	}
	event := ClipEvent{Index: index, Total: total, Name: name, Segment: seg}
	e.emit(event)

	if !e.opts.DryRun {
		result.Err = e.cutter.Cut(ctx, input, seg.Start, seg.End, result.Path)
	}

	fields := logrus.Fields{
		"segment": index + 1,
		"start":   fmt.Sprintf("%.2f", seg.Start),
		"end":     fmt.Sprintf("%.2f", seg.End),
	}
	if result.OK() {
		e.log.WithFields(fields).Infof("successfully created %s", name)
	} else {
		e.log.WithFields(fields).WithError(result.Err).Errorf("could not create %s", result.Path)
	}

	if err := manifest.Record(name, seg, result.OK()); err != nil {
		e.log.WithFields(fields).WithError(err).Error("could not record segment")
	}

	event.Done = true
	event.Err = result.Err
	e.emit(event)
	return result
}

func (e *Extractor) emit(event ClipEvent) {
	if e.Clip != nil {
		e.Clip(event)
	}
}

// printManifest writes the manifest contents to Out
func (e *Extractor) printManifest(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.WithError(err).Warn("could not read manifest")
		return
	}
	fmt.Fprintf(e.Out, "------------\n%s\n\n%s\n", ManifestName, data)
}
