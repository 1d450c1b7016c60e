package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/bizdesk/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<h2>{{.CompanyName}} daily summary</h2>
<p>{{.Period.From.Format "2006-01-02"}}</p>
<table>
<tr><td>Sales</td><td>{{.Totals.SalesTotal.StringFixed 2}} {{.Currency}}</td></tr>
<tr><td>Purchases</td><td>{{.Totals.PurchasesTotal.StringFixed 2}} {{.Currency}}</td></tr>
<tr><td>Gross margin</td><td>{{.Totals.GrossMargin.StringFixed 2}} {{.Currency}}</td></tr>
<tr><td>Invoices</td><td>{{.Totals.InvoiceCount}}</td></tr>
<tr><td>Orders</td><td>{{.Totals.OrderCount}}</td></tr>
<tr><td>Outstanding</td><td>{{.Totals.OutstandingAmount.StringFixed 2}} {{.Currency}}</td></tr>
<tr><td>Low stock products</td><td>{{.LowStockCount}}</td></tr>
</table>
{{if .TopProducts}}<h3>Top products</h3>
<ol>{{range .TopProducts}}<li>{{.ProductName}} ({{.Quantity}})</li>{{end}}</ol>{{end}}
`))

// DigestExecutor emails yesterday's summary of one company. It runs on the
// scheduler's worker pool, which retries a job when Execute fails.
type DigestExecutor struct {
	reports    *ReportService
	mailer     appshared.Mailer
	recipients []string
	logger     *zap.Logger
}

// NewDigestExecutor creates a new DigestExecutor. recipients receive every
// company's digest; companies with daily reports enabled also get it at the
// company email.
func NewDigestExecutor(reports *ReportService, mailer appshared.Mailer, recipients []string, logger *zap.Logger) *DigestExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestExecutor{
		reports:    reports,
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
	}
}

// Execute implements scheduler.JobExecutor
func (e *DigestExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	if job.Kind != scheduler.JobKindDailyDigest {
		return fmt.Errorf("unsupported job kind %s", job.Kind)
	}
	now := job.ScheduledAt
	if now.IsZero() {
		now = time.Now()
	}

	summary, company, settings, err := e.reports.DailySummary(ctx, job.CompanyID, now)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	recipients := slices.Clone(e.recipients)
	if settings.DailyReportEnabled && company.Email != "" && !slices.Contains(recipients, company.Email) {
		recipients = append(recipients, company.Email)
	}
	if len(recipients) == 0 {
		e.logger.Debug("No digest recipients", zap.String("company_id", company.ID.String()))
		return nil
	}

	msg, err := digestMessage(summary)
	if err != nil {
		return err
	}

	var errs []error
	for _, to := range recipients {
		msg.To = []string{to}
		if err := e.mailer.Send(ctx, msg); err != nil {
			e.logger.Warn("Failed to send daily digest",
				zap.String("company_id", company.ID.String()),
				zap.String("recipient", to),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == len(recipients) {
		return fmt.Errorf("daily digest not delivered: %w", errors.Join(errs...))
	}

	e.logger.Info("Daily digest sent",
		zap.String("company_id", company.ID.String()),
		zap.Int("recipients", len(recipients)-len(errs)))
	return nil
}

func digestMessage(summary *report.Summary) (appshared.Message, error) {
	var html bytes.Buffer
	if err := digestTemplate.Execute(&html, summary); err != nil {
		return appshared.Message{}, fmt.Errorf("failed to render digest: %w", err)
	}
	workbook, err := RenderWorkbook(summary)
	if err != nil {
		return appshared.Message{}, err
	}

	t := summary.Totals
	var text strings.Builder
	fmt.Fprintf(&text, "%s daily summary for %s\n\n", summary.CompanyName, summary.Period.From.Format(time.DateOnly))
	fmt.Fprintf(&text, "Sales: %s %s\n", t.SalesTotal.StringFixed(2), summary.Currency)
	fmt.Fprintf(&text, "Purchases: %s %s\n", t.PurchasesTotal.StringFixed(2), summary.Currency)
	fmt.Fprintf(&text, "Gross margin: %s %s\n", t.GrossMargin.StringFixed(2), summary.Currency)
	fmt.Fprintf(&text, "Invoices: %d, orders: %d\n", t.InvoiceCount, t.OrderCount)
	fmt.Fprintf(&text, "Low stock products: %d\n", summary.LowStockCount)

	return appshared.Message{
		Subject:  fmt.Sprintf("%s daily summary %s", summary.CompanyName, summary.Period.From.Format(time.DateOnly)),
		HTMLBody: html.String(),
		TextBody: text.String(),
		Attachments: []appshared.Attachment{{
			Filename:    WorkbookFilename(summary),
			ContentType: XLSXContentType,
			Data:        workbook,
		}},
	}, nil
}

var _ scheduler.JobExecutor = (*DigestExecutor)(nil)
