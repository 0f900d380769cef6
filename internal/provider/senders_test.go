package provider_test

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyhub/campaign-mailer/internal/provider"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESSender_BuildsRequest(t *testing.T) {
	fake := &fakeSES{}
	s := provider.NewSESWithClient(fake, provider.SESConfig{
		From:             "no-reply@example.org",
		ReplyTo:          "support@example.org",
		ConfigurationSet: "transactional",
	})

	err := s.SendEmail(context.Background(), provider.Message{To: "a@x.com", Subject: "Hi", HTML: "<p>b</p>"})
	require.NoError(t, err)

	require.NotNil(t, fake.in)
	assert.Equal(t, "no-reply@example.org", aws.ToString(fake.in.FromEmailAddress))
	assert.Equal(t, []string{"a@x.com"}, fake.in.Destination.ToAddresses)
	assert.Equal(t, []string{"support@example.org"}, fake.in.ReplyToAddresses)
	assert.Equal(t, "transactional", aws.ToString(fake.in.ConfigurationSetName))
	assert.Equal(t, "Hi", aws.ToString(fake.in.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>b</p>", aws.ToString(fake.in.Content.Simple.Body.Html.Data))
}

func TestSESSender_WrapsError(t *testing.T) {
	cause := errors.New("throttled")
	s := provider.NewSESWithClient(&fakeSES{err: cause}, provider.SESConfig{From: "f@x.com"})

	err := s.SendEmail(context.Background(), provider.Message{To: "a@x.com"})
	assert.ErrorIs(t, err, cause)
}

func TestNewPostmark_RequiresToken(t *testing.T) {
	_, err := provider.NewPostmark(provider.PostmarkConfig{From: "f@x.com"})
	assert.Error(t, err)

	_, err = provider.NewPostmark(provider.PostmarkConfig{ServerToken: "t", From: "f@x.com"})
	assert.NoError(t, err)
}

func TestNewSMTP_ValidatesConfig(t *testing.T) {
	base := provider.SMTPConfig{Host: "mail.example.org", Port: 587, TLSMode: "starttls", From: "f@x.com"}

	_, err := provider.NewSMTP(base)
	require.NoError(t, err)

	bad := base
	bad.TLSMode = "ssl"
	_, err = provider.NewSMTP(bad)
	assert.Error(t, err)

	bad = base
	bad.Port = 0
	_, err = provider.NewSMTP(bad)
	assert.Error(t, err)
}

// fakeSMTP accepts one plain-text session and returns the DATA payload.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		var data string
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(line, "MAIL FROM"), strings.HasPrefix(line, "RCPT TO"):
				_ = tp.PrintfLine("250 ok")
			case line == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				data = string(body)
				_ = tp.PrintfLine("250 queued")
			case line == "QUIT":
				_ = tp.PrintfLine("221 bye")
				got <- data
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), got
}

func TestSMTPSender_PlainSession(t *testing.T) {
	addr, got := fakeSMTP(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s, err := provider.NewSMTP(provider.SMTPConfig{
		Host: host, Port: port, TLSMode: "plain", From: "no-reply@example.org",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.SendEmail(ctx, provider.Message{To: "a@x.com", Subject: "Hi\r\nBcc: evil@x.com", HTML: "<p>hello</p>"}))

	select {
	case data := <-got:
		assert.Contains(t, data, "To: a@x.com")
		assert.Contains(t, data, "Subject: Hi  Bcc: evil@x.com")
		assert.NotContains(t, data, "\nBcc:")
		assert.Contains(t, data, "<p>hello</p>")
	case <-time.After(2 * time.Second):
		t.Fatal("fake server did not receive the message")
	}
}

func TestSMTPSender_EncodesNonASCIISubject(t *testing.T) {
	addr, got := fakeSMTP(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s, err := provider.NewSMTP(provider.SMTPConfig{
		Host: host, Port: port, TLSMode: "plain", From: "no-reply@example.org",
	})
	require.NoError(t, err)

	subject := "Merci Zoë, your €25 donation arrived"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.SendEmail(ctx, provider.Message{To: "a@x.com", Subject: subject, HTML: "<p>hi</p>"}))

	var data string
	select {
	case data = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("fake server did not receive the message")
	}

	var raw string
	for _, line := range strings.Split(data, "\n") {
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			raw = v
		}
	}
	require.NotEmpty(t, raw)
	for _, r := range raw {
		assert.Less(t, r, rune(0x80), "subject header must be ASCII")
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)
}

func TestSMTPSender_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	s, err := provider.NewSMTP(provider.SMTPConfig{
		Host: "127.0.0.1", Port: addr.Port, TLSMode: "plain", From: "f@x.com",
	})
	require.NoError(t, err)

	err = s.SendEmail(context.Background(), provider.Message{To: "a@x.com"})
	assert.Error(t, err)
}
