package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"subtrack/internal/application/dto"
	"subtrack/internal/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessage = dto.EmailMessage{
	To:      "owner@example.com",
	Subject: "⏰ Spotify renews tomorrow",
	Text:    "Your Spotify subscription renews tomorrow.",
	HTML:    "<p>Your Spotify subscription renews tomorrow.</p>",
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, "reminders@example.com", "Subscription Tracker", logger.Discard())

	require.NoError(t, sender.Send(context.Background(), testMessage))

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, `"Subscription Tracker" <reminders@example.com>`, aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"owner@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, testMessage.Subject, aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, testMessage.HTML, aws.ToString(in.Content.Simple.Body.Html.Data))
	assert.Equal(t, testMessage.Text, aws.ToString(in.Content.Simple.Body.Text.Data))
}

func TestSESSender_SendError(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("MessageRejected: Email address is not verified")}, "reminders@example.com", "", logger.Discard())

	err := sender.Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRejected")
}

func TestNewSESSender_RequiresFrom(t *testing.T) {
	_, err := NewSESSender(context.Background(), SESConfig{Region: "us-east-1"}, logger.Discard())
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{
		Host: "smtp.example.com", Username: "user", Password: "secret",
		From: "reminders@example.com", FromName: "Subscription Tracker",
	}, logger.Discard())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth smtp.Auth
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), testMessage))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "reminders@example.com", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
}

func TestSMTPSender_ReturnsWhenContextExpires(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "reminders@example.com"}, logger.Discard())
	release := make(chan struct{})
	defer close(release)
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := sender.Send(ctx, testMessage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSMTPSender_PropagatesRelayError(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "reminders@example.com"}, logger.Discard())
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 5.1.1 user unknown")
	}

	err := sender.Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550 5.1.1 user unknown")
}

func TestBuildMessage(t *testing.T) {
	raw, err := buildMessage("Subscription Tracker", "reminders@example.com", testMessage, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, testMessage.Subject, subject)
	assert.Equal(t, "owner@example.com", parsed.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	var types, bodies []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		types = append(types, strings.Split(part.Header.Get("Content-Type"), ";")[0])
		bodies = append(bodies, string(body))
	}
	assert.Equal(t, []string{"text/plain", "text/html"}, types)
	assert.Equal(t, testMessage.Text, bodies[0])
	assert.Equal(t, testMessage.HTML, bodies[1])
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(logger.NewWithWriter(&buf, "info"))

	require.NoError(t, sender.Send(context.Background(), testMessage))
	assert.Contains(t, buf.String(), "Spotify renews tomorrow")
	assert.NotContains(t, buf.String(), "owner@example.com")
}
