package mailer

import (
	"fmt"
	"html"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"
)

// Config SMTP 설정
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	AppURL   string
}

// Mailer sends reminder emails over SMTP
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

// New creates a Mailer
func New(cfg Config) *Mailer {
	if cfg.FromName == "" {
		cfg.FromName = "JournalApp"
	}
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one HTML email
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient email address is missing")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.cfg.From, m.cfg.FromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// SendMonthlySummary 지난달 작성 요약
func (m *Mailer) SendMonthlySummary(to string, entryCount int64, month time.Time) error {
	subject, body := MonthlySummary(entryCount, month, m.cfg.AppURL)
	return m.Send(to, subject, body)
}

// SendMemoryLane N개월 전 오늘
func (m *Mailer) SendMemoryLane(to string, date time.Time, entryCount int64) error {
	subject, body := MemoryLane(date, entryCount, m.cfg.AppURL)
	return m.Send(to, subject, body)
}

// SendAnniversary N년 전 오늘
func (m *Mailer) SendAnniversary(to string, date time.Time, yearsAgo int64) error {
	subject, body := Anniversary(date, yearsAgo, m.cfg.AppURL)
	return m.Send(to, subject, body)
}

// SendVerification 가입 이메일 인증 링크
func (m *Mailer) SendVerification(to, username, token string) error {
	subject, body := Verification(username, token, m.cfg.AppURL)
	return m.Send(to, subject, body)
}

// Verification renders the account verification email
func Verification(username, token, appURL string) (string, string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", appURL, url.QueryEscape(token))
	body := fmt.Sprintf(`<html><body style="font-family: sans-serif;">
<h2>Verify your email</h2>
<p>Hi %s, confirm your address to start receiving journal reminders.</p>
<p><a href="%s">Verify my email</a></p>
<p>Your verification code: <code>%s</code></p>
</body></html>`, html.EscapeString(username), html.EscapeString(link), html.EscapeString(token))
	return "Verify your JournalApp email", body
}

// MonthlySummary renders the monthly reflection email
func MonthlySummary(entryCount int64, month time.Time, appURL string) (string, string) {
	link := fmt.Sprintf("%s/entries?month=%s", appURL, month.Format("2006-01"))
	body := fmt.Sprintf(`<html><body style="font-family: sans-serif;">
<h2>Your Monthly Journal Reflection</h2>
<p>You wrote <strong>%d</strong> %s in %s.</p>
<p><a href="%s">Look back at your month</a></p>
</body></html>`, entryCount, plural(entryCount, "entry", "entries"), month.Format("January 2006"), html.EscapeString(link))
	return "Your Monthly Journal Reflection", body
}

// MemoryLane renders the memory lane email
func MemoryLane(date time.Time, entryCount int64, appURL string) (string, string) {
	link := fmt.Sprintf("%s/entries?date=%s", appURL, date.Format("2006-01-02"))
	body := fmt.Sprintf(`<html><body style="font-family: sans-serif;">
<h2>A Walk Down Memory Lane</h2>
<p>On %s you wrote <strong>%d</strong> %s.</p>
<p><a href="%s">Read them again</a></p>
</body></html>`, date.Format("January 2, 2006"), entryCount, plural(entryCount, "entry", "entries"), html.EscapeString(link))
	return "A Walk Down Memory Lane", body
}

// Anniversary renders the anniversary email
func Anniversary(date time.Time, yearsAgo int64, appURL string) (string, string) {
	link := fmt.Sprintf("%s/entries?date=%s", appURL, date.Format("2006-01-02"))
	body := fmt.Sprintf(`<html><body style="font-family: sans-serif;">
<h2>Your Journal Anniversary</h2>
<p>%d %s ago today, on %s, you wrote in your journal.</p>
<p><a href="%s">See what you wrote</a></p>
</body></html>`, yearsAgo, plural(yearsAgo, "year", "years"), date.Format("January 2, 2006"), html.EscapeString(link))
	return "Your Journal Anniversary", body
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
