package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/tauraamui/edgevector/pkg/analyze"
	"github.com/tauraamui/edgevector/pkg/configdef"
	"github.com/tauraamui/edgevector/pkg/edge"
	"github.com/tauraamui/edgevector/pkg/extract"
	"github.com/tauraamui/edgevector/pkg/framestore"
	"github.com/tauraamui/edgevector/pkg/log"
	"github.com/tauraamui/edgevector/pkg/table"
	"github.com/tauraamui/edgevector/pkg/video/videobackend"
	"github.com/tauraamui/edgevector/pkg/window"
	"github.com/tauraamui/xerror"
)

type Report struct {
	RunID      string
	Extraction extract.Result
	Summary    analyze.Summary
	Rows       int
	OutputPath string
	Windows    int
}

type Pipeline struct {
	fs      afero.Fs
	backend videobackend.Backend
	values  configdef.Values
	runID   string
}

func New(fs afero.Fs, backend videobackend.Backend, values configdef.Values) (*Pipeline, error) {
	if err := values.RunValidate(); err != nil {
		return nil, err
	}
	return &Pipeline{fs: fs, backend: backend, values: values, runID: uuid.NewString()}, nil
}

func (p *Pipeline) RunID() string { return p.runID }

func (p *Pipeline) Values() configdef.Values { return p.values }

// Run extracts every frame of the source then analyzes the configured
// range of them. Nothing is written to the output table unless the
// source could be opened and decoded.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	log.Info("Starting run [%s] for %s", p.runID, p.values.SourcePath)

	store, err := p.store()
	if err != nil {
		return p.report(), err
	}

	extraction, err := p.extract(ctx, store)
	report := p.report()
	report.Extraction = extraction
	if err != nil {
		return report, err
	}

	return p.analyze(ctx, store, extraction.Stills, extraction.FPS, report)
}

// Extract only decodes and persists the source's frames.
func (p *Pipeline) Extract(ctx context.Context) (extract.Result, error) {
	store, err := p.store()
	if err != nil {
		return extract.Result{}, err
	}
	return p.extract(ctx, store)
}

// Analyze measures stills left in the image directory by an earlier
// extraction. fps is only needed for window averaging.
func (p *Pipeline) Analyze(ctx context.Context, fps float64) (Report, error) {
	store, err := p.store()
	if err != nil {
		return p.report(), err
	}

	stills, err := store.List()
	if err != nil {
		return p.report(), err
	}
	if len(stills) == 0 {
		return p.report(), xerror.Errorf("no %s stills found in %s", p.values.ImageFormat, p.values.ImageDir)
	}

	return p.analyze(ctx, store, stills, fps, p.report())
}

// Window averages an existing output table over window_seconds long windows.
func (p *Pipeline) Window(fps float64) (int, error) {
	rows, err := table.Read(p.fs, p.values.OutputPath)
	if err != nil {
		return 0, err
	}

	windows, err := window.Average(rows, fps, p.values.WindowSeconds)
	if err != nil {
		return 0, err
	}

	if err := window.Write(p.fs, p.values.WindowOutputPath, windows); err != nil {
		return 0, err
	}
	log.Info("Averaged %d rows into %d windows of %vs: %s", len(rows), len(windows), p.values.WindowSeconds, p.values.WindowOutputPath)
	return len(windows), nil
}

// SourceFPS opens the source just long enough to read its nominal frame rate.
func (p *Pipeline) SourceFPS(ctx context.Context) (float64, error) {
	src, err := p.backend.Open(ctx, p.values.SourcePath)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return src.FPS(), nil
}

func (p *Pipeline) report() Report {
	return Report{RunID: p.runID, OutputPath: p.values.OutputPath}
}

func (p *Pipeline) store() (framestore.Store, error) {
	return framestore.New(p.fs, p.values.ImageDir, p.values.ImageFormat)
}

func (p *Pipeline) extract(ctx context.Context, store framestore.Store) (extract.Result, error) {
	extractor := extract.Extractor{
		Backend:           p.backend,
		Store:             store,
		MaxDecodeFailures: p.values.MaxDecodeFailures,
	}
	return extractor.Run(ctx, p.values.SourcePath)
}

func (p *Pipeline) analyze(
	ctx context.Context, store framestore.Store, stills []framestore.Still, fps float64, report Report,
) (Report, error) {
	frameRange := p.values.Range()
	selected := analyze.Select(stills, frameRange)
	if len(selected) < len(stills) {
		log.Info("Frame range %s selects %d of %d frames", frameRange, len(selected), len(stills))
	}
	if frameRange.Bounded() && len(stills) > 0 && frameRange.End > stills[len(stills)-1].Index+1 {
		log.Warn("Frame range %s runs past the last frame (%s)", frameRange, stills[len(stills)-1].ID)
	}

	out, err := table.Create(p.fs, p.values.OutputPath)
	if err != nil {
		return report, err
	}

	analyzer := analyze.Analyzer{
		Store:          store,
		Detector:       edge.New(p.values.ThresholdLow, p.values.ThresholdHigh),
		Workers:        p.values.Workers,
		SkipUnreadable: p.values.SkipUnreadable,
	}
	summary, runErr := analyzer.Run(ctx, selected, out)
	closeErr := out.Close()

	report.Summary = summary
	report.Rows = out.Rows()
	if runErr != nil {
		return report, runErr
	}
	if closeErr != nil {
		return report, closeErr
	}

	if p.values.WindowSeconds > 0 {
		windows, err := p.Window(fps)
		if err != nil {
			return report, xerror.Errorf("unable to average edge proportions over windows: %w", err)
		}
		report.Windows = windows
	}

	log.Info("Done! Check your output file: %s", p.values.OutputPath)
	return report, nil
}
