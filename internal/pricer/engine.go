package pricer

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/batimetric/pricing-engine/internal/model"
)

const defaultMatchConcurrency = 8

// Engine orchestrates pricing of a whole proposal.
type Engine struct {
	tasks       *TaskPricer
	materials   *MaterialPricer
	concurrency int
}

// NewEngine creates an Engine. concurrency caps the number of in-flight
// catalog match calls per proposal; <= 0 uses the default.
func NewEngine(tasks *TaskPricer, materials *MaterialPricer, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = defaultMatchConcurrency
	}
	return &Engine{tasks: tasks, materials: materials, concurrency: concurrency}
}

// PriceProposal prices every task and material line. One malformed line does
// not abort the proposal: failures are reported per-line and the remaining
// lines still aggregate. Material lines are independent, so their catalog
// lookups run concurrently. The only fatal input error is a negative margin.
func (e *Engine) PriceProposal(ctx context.Context, p model.Proposal) (*model.PricedProposal, error) {
	if p.ContractorMargin < 0 {
		return nil, eris.Wrapf(ErrInvalidMargin, "margin %g", p.ContractorMargin)
	}

	asOf := time.Now().UTC()
	region := p.Metadata.Region

	out := &model.PricedProposal{
		Title:           p.Title,
		Metadata:        p.Metadata,
		PricedTasks:     []model.PricedTask{},
		PricedMaterials: []model.PricedMaterial{},
	}

	var totalTasks float64
	for i, t := range p.Tasks {
		pt, err := e.tasks.PriceTask(ctx, t, region, p.ContractorMargin, asOf)
		if err != nil {
			zap.L().Warn("pricer: task line rejected",
				zap.Int("index", i),
				zap.String("label", t.Label),
				zap.Error(err),
			)
			out.FailedLines = append(out.FailedLines, model.LineError{
				Kind: "task", Index: i, Label: t.Label, Error: err.Error(),
			})
			continue
		}
		out.PricedTasks = append(out.PricedTasks, pt)
		totalTasks += pt.WithMargin
	}

	// Materials run concurrently; results keep input order.
	type matResult struct {
		line model.PricedMaterial
		err  error
	}
	results := make([]matResult, len(p.Materials))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	var mu sync.Mutex

	for i, m := range p.Materials {
		i, m := i, m
		g.Go(func() error {
			line, err := e.materials.PriceMaterial(gctx, m, p.ContractorMargin, asOf)
			mu.Lock()
			results[i] = matResult{line: line, err: err}
			mu.Unlock()
			return nil // line failures never cancel sibling lookups
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pricer: material group")
	}

	var totalMaterials float64
	for i, r := range results {
		if r.err != nil {
			zap.L().Warn("pricer: material line rejected",
				zap.Int("index", i),
				zap.String("label", p.Materials[i].Label),
				zap.Error(r.err),
			)
			out.FailedLines = append(out.FailedLines, model.LineError{
				Kind: "material", Index: i, Label: p.Materials[i].Label, Error: r.err.Error(),
			})
			continue
		}
		out.PricedMaterials = append(out.PricedMaterials, r.line)
		if r.line.WithMargin != nil {
			totalMaterials += *r.line.WithMargin
		}
	}

	// Totals are sums of already-rounded line values; Total is derived from
	// the rounded subtotals so the summary is internally exact.
	out.Summary = model.Summary{
		TotalTasks:     round2(totalTasks),
		TotalMaterials: round2(totalMaterials),
		MarginApplied:  p.ContractorMargin,
		Currency:       model.Currency,
	}
	out.Summary.Total = round2(out.Summary.TotalTasks + out.Summary.TotalMaterials)

	zap.L().Info("pricer: proposal priced",
		zap.String("title", p.Title),
		zap.Int("tasks", len(out.PricedTasks)),
		zap.Int("materials", len(out.PricedMaterials)),
		zap.Int("failed_lines", len(out.FailedLines)),
		zap.Float64("total", out.Summary.Total),
	)
	return out, nil
}
