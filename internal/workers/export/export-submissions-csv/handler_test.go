// internal/workers/export/export-submissions-csv/handler_test.go
package exportsubmissionscsv

import (
	"context"
	"strings"
	"testing"
	"time"

	stderrors "formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

func strPtr(s string) *string { return &s }

func validInput() *Input {
	return &Input{
		FormName:        "Contact Form",
		HasCompoundName: true,
		DataKeys:        []string{"Email"},
		Submissions: []models.Submission{
			{
				ID:          "1",
				SubmittedAt: time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local),
				Data: models.SubmissionData{
					{Label: "Name", Value: strPtr("Jane Q Public")},
					{Label: "Email", Value: strPtr(`jane "JQ" @example`)},
				},
			},
		},
	}
}

func TestExecute_RendersCSV(t *testing.T) {
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger(), nil)

	output, err := h.Execute(context.Background(), validInput())
	require.NoError(t, err)

	assert.True(t, output.Exported)
	assert.Equal(t, "contact-form.csv", output.FileName)
	assert.Equal(t, 1, output.RowCount)
	assert.NotEmpty(t, output.ArtifactID)
	assert.False(t, output.Delivered)

	lines := strings.Split(output.Content, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"First Name","Last Name","Email","Submitted"`, lines[0])
	assert.Contains(t, lines[1], `"Jane","Q Public"`)
	assert.Contains(t, lines[1], `"jane ""JQ"" @example"`)
}

func TestExecute_EmptySetIsNoOpNotice(t *testing.T) {
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger(), nil)

	output, err := h.Execute(context.Background(), &Input{FormName: "Contact Form"})
	require.NoError(t, err)

	assert.False(t, output.Exported)
	assert.Equal(t, "No submissions in the selected range", output.Notice)
	assert.Empty(t, output.FileName)
	assert.Empty(t, output.Content)
}

func TestExecute_DefaultFileStem(t *testing.T) {
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger(), nil)

	input := validInput()
	input.FormName = ""

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "submissions.csv", output.FileName)
}

func TestExecute_DeliversWhenRecipientSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.FromEmail = "exports@formdesk.example"

	mockSES := new(MockSES)
	mockSES.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return len(in.Destination.ToAddresses) == 1 &&
			in.Destination.ToAddresses[0] == "ops@example.com"
	})).Return(&ses.SendEmailOutput{}, nil)

	h := NewHandler(cfg, logger.NewNoOpLogger(), mockSES)

	input := validInput()
	input.Recipient = "ops@example.com"

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, output.Delivered)
	mockSES.AssertExpectations(t)
}

func TestExecute_DeliveryFailureSurfaced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.FromEmail = "exports@formdesk.example"

	mockSES := new(MockSES)
	mockSES.On("SendEmail", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	h := NewHandler(cfg, logger.NewNoOpLogger(), mockSES)

	input := validInput()
	input.Recipient = "ops@example.com"

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)

	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeReportDeliveryFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestStemFromFormName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Contact Form", "contact-form"},
		{"Vendor Onboarding 2024", "vendor-onboarding-2024"},
		{"", ""},
		{"weird!@#chars", "weirdchars"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stemFromFormName(tc.name), tc.name)
	}
}
