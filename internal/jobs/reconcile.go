package jobs

import (
	"context"

	"github.com/cloo-solutions/docsmith/internal/domain"
)

// Reconciler repairs the index after interrupted ingestions.
type Reconciler interface {
	Reconcile(ctx context.Context) (*domain.ReconcileReport, error)
}

// ReconcileProcessor runs one reconcile pass per tick.
type ReconcileProcessor struct {
	reconciler Reconciler
}

func NewReconcileProcessor(reconciler Reconciler) *ReconcileProcessor {
	return &ReconcileProcessor{reconciler: reconciler}
}

func (p *ReconcileProcessor) Process(ctx context.Context) error {
	_, err := p.reconciler.Reconcile(ctx)
	return err
}
