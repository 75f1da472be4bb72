package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendWhenDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"officer@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com", Port: 587})
	require.NoError(t, err)
}

func TestFormatMessageEscapesHeaders(t *testing.T) {
	out := formatMessage("noreply@example.com", []string{"a@example.com"}, "urgent\r\njob", "body")
	require.NotContains(t, out, "urgent\r\njob")
	require.Contains(t, out, "Subject: urgent job")
}

func TestUniqueAddresses(t *testing.T) {
	out := uniqueAddresses([]string{"a@example.com", " a@example.com ", "", "b@example.com"})
	require.Equal(t, []string{"a@example.com", "b@example.com"}, out)
}
