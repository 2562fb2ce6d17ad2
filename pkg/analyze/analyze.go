package analyze

import (
	"context"
	"sync"

	"github.com/tauraamui/edgevector/pkg/edge"
	"github.com/tauraamui/edgevector/pkg/framestore"
	"github.com/tauraamui/edgevector/pkg/log"
	"github.com/tauraamui/edgevector/pkg/table"
	"github.com/tauraamui/xerror"
)

type Analyzer struct {
	Store          framestore.Store
	Detector       edge.Detector
	Workers        int
	SkipUnreadable bool
}

type Summary struct {
	Analyzed int
	Skipped  int
}

type outcome struct {
	measurement edge.Measurement
	err         error
}

// Run measures every still and writes one row per still to out, in the
// order the stills were given, regardless of how many workers measure them.
func (a Analyzer) Run(ctx context.Context, stills []framestore.Still, out table.RowWriter) (Summary, error) {
	log.Info("Analyzing visual edges of %d frames and writing output file...", len(stills))
	if a.Workers <= 1 {
		return a.runSequential(ctx, stills, out)
	}
	return a.runPool(ctx, stills, out)
}

func (a Analyzer) runSequential(ctx context.Context, stills []framestore.Still, out table.RowWriter) (Summary, error) {
	summary := Summary{}
	for _, still := range stills {
		if err := ctx.Err(); err != nil {
			return summary, xerror.Errorf("edge analysis interrupted: %w", err)
		}
		m, err := a.measure(still)
		if err := a.record(still, outcome{measurement: m, err: err}, out, &summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (a Analyzer) runPool(ctx context.Context, stills []framestore.Still, out table.RowWriter) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]outcome, len(stills))
	ready := make([]chan struct{}, len(stills))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range stills {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg := sync.WaitGroup{}
	for w := 0; w < a.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m, err := a.measure(stills[i])
				outcomes[i] = outcome{measurement: m, err: err}
				close(ready[i])
			}
		}()
	}

	summary, err := a.collect(ctx, stills, ready, outcomes, out)
	cancel()
	wg.Wait()
	return summary, err
}

func (a Analyzer) collect(
	ctx context.Context, stills []framestore.Still, ready []chan struct{}, outcomes []outcome, out table.RowWriter,
) (Summary, error) {
	summary := Summary{}
	for i, still := range stills {
		select {
		case <-ready[i]:
		case <-ctx.Done():
			return summary, xerror.Errorf("edge analysis interrupted: %w", ctx.Err())
		}
		if err := a.record(still, outcomes[i], out, &summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (a Analyzer) measure(still framestore.Still) (edge.Measurement, error) {
	gray, err := a.Store.LoadGray(still)
	if err != nil {
		return edge.Measurement{}, err
	}
	defer gray.Close()
	return a.Detector.Measure(gray)
}

func (a Analyzer) record(still framestore.Still, oc outcome, out table.RowWriter, summary *Summary) error {
	if oc.err != nil {
		if !a.SkipUnreadable {
			return xerror.Errorf("unable to analyze %s: %w", still.FileName(), oc.err)
		}
		summary.Skipped++
		log.Warn("Skipping %s: %v", still.FileName(), oc.err)
		return nil
	}

	m := oc.measurement
	log.Debug(
		"Frame image: %s, total pixels: %d, edge pixels: %d, proportion: %v",
		still.FileName(), m.Pixels, m.EdgePixels, m.Proportion,
	)
	if err := out.Write(table.Row{Frame: still.FileName(), Index: still.Index, Proportion: m.Proportion}); err != nil {
		return err
	}
	summary.Analyzed++
	return nil
}
