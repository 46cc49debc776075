package email

import (
	"testing"
	"time"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmailBody(t *testing.T) {
	n := New(&config.EmailConfig{})
	body, err := n.generateEmailBody(Submission{
		Kind:        "food",
		Name:        "Chicken",
		Creator:     "alice",
		SubmittedAt: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
		ReviewURL:   "http://localhost:3003/admin",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Chicken")
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "2024-03-10 09:30")
	assert.Contains(t, body, "http://localhost:3003/admin")
}

func TestSendSubmissionNotification_Disabled(t *testing.T) {
	n := New(&config.EmailConfig{Enabled: false})
	assert.NoError(t, n.SendSubmissionNotification(Submission{Name: "Chicken"}))

	n = New(nil)
	assert.NoError(t, n.SendSubmissionNotification(Submission{Name: "Chicken"}))
}

func TestSendSubmissionNotification_NoRecipients(t *testing.T) {
	n := New(&config.EmailConfig{Enabled: true, SMTPHost: "localhost", FromEmail: "lifetrack@example.com"})
	assert.NoError(t, n.SendSubmissionNotification(Submission{Name: "Chicken"}))
}
