package report

import (
	"context"
	"errors"
	"testing"
	"time"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/infrastructure/scheduler"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func digestJob(f *reportFixture) *scheduler.Job {
	return scheduler.NewJob(scheduler.JobKindDailyDigest, f.company.ID,
		time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC), 3)
}

func TestDigestExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("sends to configured recipients and opted-in company", func(t *testing.T) {
		f := newReportFixture(t)
		settings := identity.NewCompanySettings(f.company.ID)
		settings.DailyReportEnabled = true
		f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(settings, nil)
		f.expectAggregates(nil)
		f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(1), nil)

		mailer := new(testutil.MockMailer)
		var sent []appshared.Message
		mailer.On("Send", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).(appshared.Message)) }).
			Return(nil)
		exec := NewDigestExecutor(f.service, mailer, []string{"ops@bizdesk.test"}, zaptest.NewLogger(t))

		require.NoError(t, exec.Execute(ctx, digestJob(f)))

		require.Len(t, sent, 2)
		assert.Equal(t, []string{"ops@bizdesk.test"}, sent[0].To)
		assert.Equal(t, []string{"owner@acme.test"}, sent[1].To)
		assert.Equal(t, "Acme Ltd daily summary 2026-10-18", sent[0].Subject)
		assert.Contains(t, sent[0].HTMLBody, "330.00 USD")
		assert.Contains(t, sent[0].TextBody, "Low stock products: 1")
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, XLSXContentType, sent[0].Attachments[0].ContentType)
		assert.NotEmpty(t, sent[0].Attachments[0].Data)
	})

	t.Run("company without opt-in only reaches fixed recipients", func(t *testing.T) {
		f := newReportFixture(t)
		f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(identity.NewCompanySettings(f.company.ID), nil)
		f.expectAggregates(nil)
		f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(0), nil)

		mailer := new(testutil.MockMailer)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(m appshared.Message) bool {
			return m.To[0] == "ops@bizdesk.test"
		})).Return(nil).Once()
		exec := NewDigestExecutor(f.service, mailer, []string{"ops@bizdesk.test"}, nil)

		require.NoError(t, exec.Execute(ctx, digestJob(f)))
		mailer.AssertExpectations(t)
	})

	t.Run("one failed recipient does not fail the job", func(t *testing.T) {
		f := newReportFixture(t)
		f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(identity.NewCompanySettings(f.company.ID), nil)
		f.expectAggregates(nil)
		f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(0), nil)

		mailer := new(testutil.MockMailer)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(m appshared.Message) bool {
			return m.To[0] == "bad@bizdesk.test"
		})).Return(errors.New("mailbox unavailable")).Once()
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
		exec := NewDigestExecutor(f.service, mailer, []string{"bad@bizdesk.test", "ops@bizdesk.test"}, zaptest.NewLogger(t))

		require.NoError(t, exec.Execute(ctx, digestJob(f)))
		mailer.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("all recipients failing asks for a retry", func(t *testing.T) {
		f := newReportFixture(t)
		f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(identity.NewCompanySettings(f.company.ID), nil)
		f.expectAggregates(nil)
		f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(0), nil)

		mailer := new(testutil.MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		exec := NewDigestExecutor(f.service, mailer, []string{"ops@bizdesk.test"}, zaptest.NewLogger(t))

		err := exec.Execute(ctx, digestJob(f))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
	})

	t.Run("no recipients", func(t *testing.T) {
		f := newReportFixture(t)
		f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(identity.NewCompanySettings(f.company.ID), nil)
		f.expectAggregates(nil)
		f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(0), nil)

		mailer := new(testutil.MockMailer)
		exec := NewDigestExecutor(f.service, mailer, nil, zaptest.NewLogger(t))

		require.NoError(t, exec.Execute(ctx, digestJob(f)))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
