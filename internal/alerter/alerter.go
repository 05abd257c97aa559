package alerter

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/counter"
	"Go2FlowCount/internal/factory"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/notification"
	"Go2FlowCount/internal/report"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
)

func init() {
	factory.RegisterWriter("alert", func(def config.WriterDef, opts report.Options) (model.Writer, error) {
		if len(def.Alert.Rules) == 0 {
			return nil, fmt.Errorf("alert writer needs at least one rule")
		}
		return NewAlerter(def.Alert.Rules, notification.New(def.Alert.SMTP), opts.TimeFormat), nil
	})
}

// Violation is one bin that exceeded a rule's threshold.
type Violation struct {
	Rule      string
	Field     string
	BinStart  int64
	Value     float64
	Threshold float64
}

// Alerter checks a finished series against threshold rules and sends one
// consolidated notification when any of them fire.
type Alerter struct {
	rules    []config.AlertRule
	notifier model.Notifier
	tf       report.TimeFormat
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(rules []config.AlertRule, notifier model.Notifier, tf report.TimeFormat) *Alerter {
	return &Alerter{rules: rules, notifier: notifier, tf: tf}
}

// Name returns the writer type.
func (a *Alerter) Name() string {
	return "alert"
}

// Write evaluates the payload, a counter.Result, and notifies on violations.
func (a *Alerter) Write(payload interface{}, timestamp string) error {
	res, ok := payload.(counter.Result)
	if !ok {
		return fmt.Errorf("invalid payload type for Alerter: expected counter.Result, got %T", payload)
	}

	violations := a.Evaluate(res.Series)
	if len(violations) == 0 {
		return nil
	}
	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(violations))

	subject := fmt.Sprintf("Go2FlowCount Alert Summary (%d Triggered)", len(violations))
	if err := a.notifier.Send(subject, a.summary(res, violations, timestamp)); err != nil {
		return fmt.Errorf("failed to send alert notification: %w", err)
	}
	log.Printf("Consolidated alert notification sent successfully.")
	return nil
}

// Evaluate returns the violations of every rule, in rule order and then bin order.
func (a *Alerter) Evaluate(sn bins.Snapshot) []Violation {
	var wg sync.WaitGroup
	perRule := make([][]Violation, len(a.rules))

	for i, rule := range a.rules {
		wg.Add(1)
		go func(i int, rule config.AlertRule) {
			defer wg.Done()
			for j, b := range sn.Bins {
				if v := field(b, rule.Field); v > rule.Threshold {
					perRule[i] = append(perRule[i], Violation{
						Rule:      rule.Name,
						Field:     rule.Field,
						BinStart:  sn.WindowMin + int64(j)*sn.Size,
						Value:     v,
						Threshold: rule.Threshold,
					})
				}
			}
		}(i, rule)
	}
	wg.Wait()

	var all []Violation
	for _, vs := range perRule {
		all = append(all, vs...)
	}
	return all
}

func field(b bins.Bin, name string) float64 {
	switch name {
	case "flows":
		return b.Flows
	case "bytes":
		return b.Bytes
	case "packets":
		return b.Packets
	}
	return 0
}

func (a *Alerter) summary(res counter.Result, violations []Violation, timestamp string) string {
	var sb strings.Builder
	sb.WriteString("<h1>Go2FlowCount Alert Summary</h1>")
	fmt.Fprintf(&sb, "<p>Run %s, load scheme %s, %d records. The following bins exceeded their thresholds:</p><hr>",
		html.EscapeString(timestamp), html.EscapeString(res.Scheme), res.Records)
	sb.WriteString("<table><tr><th>Rule</th><th>Bin</th><th>Field</th><th>Value</th><th>Threshold</th></tr>")
	for _, v := range violations {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%.2f</td><td>%.2f</td></tr>",
			html.EscapeString(v.Rule), report.FormatTime(v.BinStart, a.tf, res.Series.Size%1000 != 0),
			v.Field, v.Value, v.Threshold)
	}
	sb.WriteString("</table>")
	return sb.String()
}
