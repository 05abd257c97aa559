package notification

import (
	"Go2FlowCount/internal/config"
	"net/smtp"
	"strings"
	"testing"
)

func TestNew_FallsBackToLog(t *testing.T) {
	if _, ok := New(config.SMTPConfig{}).(LogNotifier); !ok {
		t.Error("Expected a LogNotifier without an SMTP host")
	}
	if _, ok := New(config.SMTPConfig{Host: "mail.example.com"}).(*EmailNotifier); !ok {
		t.Error("Expected an EmailNotifier with an SMTP host")
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{
		Host: "mail.example.com",
		Port: 587,
		From: "fc@example.com",
		To:   "ops@example.com, noc@example.com,",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if err := n.Send("Traffic spike", "<p>bin 12</p>"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "mail.example.com:587" {
		t.Errorf("Unexpected address %q", gotAddr)
	}
	if len(gotTo) != 2 || gotTo[1] != "noc@example.com" {
		t.Errorf("Unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Traffic spike\r\n") || !strings.HasSuffix(gotMsg, "\r\n\r\n<p>bin 12</p>") {
		t.Errorf("Unexpected message:\n%s", gotMsg)
	}
}

func TestEmailNotifier_NoRecipients(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "mail.example.com", Port: 25})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called")
		return nil
	}
	if err := n.Send("s", "b"); err == nil {
		t.Error("Expected error without recipients")
	}
}
