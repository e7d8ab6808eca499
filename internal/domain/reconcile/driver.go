package reconcile

import (
	"context"
	"errors"

	"github.com/marketsync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Driver orchestrates reconciliation per inventory record:
// normalize → resolve chain → assemble → validate, terminal states
// assembled or rejected. There are no retries: a resolution failure is
// attribute-data incompleteness, not a transient fault. Transient faults
// belong to the I/O collaborators, which retry before records reach here.
type Driver struct {
	chain     *Chain
	assembler *Assembler
	logger    *zap.Logger
}

// NewDriver creates a reconciliation driver.
func NewDriver(chain *Chain, assembler *Assembler, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		chain:     chain,
		assembler: assembler,
		logger:    logger,
	}
}

// Reconcile processes a deduplicated inventory snapshot record by record.
// Each record's failure is independent and never aborts the batch; rejected
// records are logged exactly once with their article and counted in the
// report. A non-record error (catalog connection lost) aborts the whole
// batch: partial catalog access produces silently wrong matches rather than
// a safe missing record.
func (d *Driver) Reconcile(ctx context.Context, records []InventoryRecord) ([]ListingPayload, *BatchReport, error) {
	payloads := make([]ListingPayload, 0, len(records))
	report := &BatchReport{Total: len(records)}

	for _, rec := range records {
		payload, err := d.reconcileOne(ctx, rec)
		if err != nil {
			var rej *RejectionError
			switch {
			case errors.As(err, &rej):
				d.logger.Warn("record rejected",
					zap.String("article", rej.Article),
					zap.String("attribute", rej.Attribute),
					zap.String("query", rej.Query),
					zap.Int("step", rej.Step),
					zap.String("reason", rej.Reason))
				report.Rejected++
				report.Rejections = append(report.Rejections, Rejection{
					Article:   rej.Article,
					Attribute: rej.Attribute,
					Reason:    rej.Reason,
				})
			case errors.Is(err, shared.ErrUnsupportedCategory):
				// Logged distinctly so operators can prioritize adding
				// builders for new categories.
				d.logger.Warn("record rejected: unsupported category",
					zap.String("article", rec.Article),
					zap.String("category", rec.Category))
				report.Rejected++
				report.Rejections = append(report.Rejections, Rejection{
					Article:   rec.Article,
					Attribute: "category",
					Reason:    "unsupported category " + rec.Category,
				})
			default:
				return nil, report, err
			}
			continue
		}

		payloads = append(payloads, *payload)
		report.Assembled++
	}

	d.logger.Info("reconciliation batch finished",
		zap.Int("total", report.Total),
		zap.Int("assembled", report.Assembled),
		zap.Int("rejected", report.Rejected))

	return payloads, report, nil
}

func (d *Driver) reconcileOne(ctx context.Context, rec InventoryRecord) (*ListingPayload, error) {
	needsChain, err := d.assembler.RequiresResolution(rec.Category)
	if err != nil {
		return nil, err
	}

	key := Normalize(rec)

	if needsChain {
		attrs, rows, err := d.chain.Resolve(ctx, rec, key)
		if err != nil {
			return nil, err
		}
		return d.assembler.Assemble(rec, attrs, rows)
	}

	return d.assembler.Assemble(rec, nil, nil)
}
