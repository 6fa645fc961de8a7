package printing

import (
	"context"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// InvoicePDFRenderer implements the application's DocumentRenderer: it lays
// the invoice out as HTML, prints it to PDF through Chrome, and keeps a copy
// on disk keyed by invoice number.
type InvoicePDFRenderer struct {
	engine  *TemplateEngine
	chrome  *ChromedpRenderer
	storage *FileStorage
	logger  *zap.Logger
}

// NewInvoicePDFRenderer wires the template engine, Chrome renderer, and file
// storage from configuration. Returns nil without error when rendering is
// disabled; the bulk coordinator treats a nil renderer as "skip PDFs".
func NewInvoicePDFRenderer(cfg *config.RendererConfig, logger *zap.Logger) (*InvoicePDFRenderer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine, err := NewTemplateEngine()
	if err != nil {
		return nil, err
	}

	storage, err := NewFileStorage(cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	chrome := NewChromedpRenderer(&ChromedpConfig{
		ChromePath: cfg.ChromePath,
		Timeout:    cfg.Timeout,
		NoSandbox:  true,
		Logger:     logger,
	})

	return &InvoicePDFRenderer{
		engine:  engine,
		chrome:  chrome,
		storage: storage,
		logger:  logger,
	}, nil
}

// RenderInvoice renders the invoice document to PDF and stores it.
func (r *InvoicePDFRenderer) RenderInvoice(ctx context.Context, doc *appbilling.InvoiceDocument) ([]byte, error) {
	html, err := r.engine.RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	pdfData, err := r.chrome.Render(ctx, html)
	if err != nil {
		return nil, err
	}

	if _, err := r.storage.Store(doc.Invoice.InvoiceNumber, pdfData); err != nil {
		// The caller still gets the bytes; losing the disk copy is not a
		// render failure.
		r.logger.Warn("Failed to store invoice PDF",
			zap.String("invoice_number", doc.Invoice.InvoiceNumber),
			zap.Error(err))
	}
	return pdfData, nil
}

// Close releases the Chrome allocator.
func (r *InvoicePDFRenderer) Close() {
	if r.chrome != nil {
		r.chrome.Close()
	}
}

// Ensure InvoicePDFRenderer implements DocumentRenderer
var _ appbilling.DocumentRenderer = (*InvoicePDFRenderer)(nil)
