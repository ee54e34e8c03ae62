// Package notify dispatches match notifications over two independent
// channels: email to a recipient list, and a push message to the match topic.
//
// The two operations share no transaction. A caller that wants both issues
// both and handles each outcome on its own. Nothing here retries a send.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freeplay/yourleague-service/internal/mailer"
	"github.com/freeplay/yourleague-service/internal/metrics"
	"github.com/freeplay/yourleague-service/internal/push"
	"github.com/freeplay/yourleague-service/internal/types"
)

// Mailer is the email transport.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Broker is the push-notification broker.
type Broker interface {
	Publish(ctx context.Context, topic string, msg push.Message) (string, error)
}

// Options configures a Dispatcher. A nil Mailer or Broker leaves that
// channel unavailable.
type Options struct {
	Mailer Mailer
	Broker Broker
	// MaxConcurrentSends caps in-flight email sends per call; <= 0 means no cap.
	MaxConcurrentSends int
	// SendTimeout bounds each dispatch call; <= 0 means no bound.
	SendTimeout time.Duration
}

type Dispatcher struct {
	mailer      Mailer
	broker      Broker
	maxInFlight int
	timeout     time.Duration
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{
		mailer:      opts.Mailer,
		broker:      opts.Broker,
		maxInFlight: opts.MaxConcurrentSends,
		timeout:     opts.SendTimeout,
	}
}

// EmailEnabled reports whether an email transport is configured.
func (d *Dispatcher) EmailEnabled() bool { return d.mailer != nil }

// PushEnabled reports whether a push broker is configured.
func (d *Dispatcher) PushEnabled() bool { return d.broker != nil }

// NotifyInput is a broadcast to a recipient list.
type NotifyInput struct {
	MatchID    string
	Recipients []string
	Subject    string
	Message    string
}

// RecipientResult is the outcome of the send to one recipient.
type RecipientResult struct {
	Recipient string
	OK        bool
	Err       error
}

// NotifyResult holds every per-recipient outcome of a broadcast.
type NotifyResult struct {
	Sent    int
	Results []RecipientResult
}

// Failed returns the recipients whose send failed.
func (r NotifyResult) Failed() []RecipientResult {
	var failed []RecipientResult
	for _, res := range r.Results {
		if !res.OK {
			failed = append(failed, res)
		}
	}
	return failed
}

// Notify emails every recipient concurrently and waits for all sends. It
// succeeds only if every send succeeds; otherwise the first transport error
// is returned while the result still lists every outcome.
func (d *Dispatcher) Notify(ctx context.Context, in NotifyInput) (NotifyResult, error) {
	recipients := normalizeRecipients(in.Recipients)
	if len(recipients) == 0 {
		metrics.NotificationRejectedTotal.WithLabelValues(metrics.ChannelEmail, "validation").Inc()
		return NotifyResult{}, types.Validationf("recipients are required")
	}
	if d.mailer == nil {
		metrics.NotificationRejectedTotal.WithLabelValues(metrics.ChannelEmail, "unavailable").Inc()
		return NotifyResult{}, fmt.Errorf("%w: email transport is not configured", types.ErrChannelUnavailable)
	}

	subject := in.Subject
	if strings.TrimSpace(subject) == "" {
		subject = fmt.Sprintf("Match %s update", in.MatchID)
	}
	message := in.Message
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("There is a new update for match %s.", in.MatchID)
	}
	html, err := mailer.MatchUpdate(in.MatchID, subject, message)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("render email: %w", err)
	}

	ctx, cancel := d.sendContext(ctx)
	defer cancel()

	results := make([]RecipientResult, len(recipients))
	var g errgroup.Group
	if d.maxInFlight > 0 {
		g.SetLimit(d.maxInFlight)
	}
	for i, to := range recipients {
		g.Go(func() error {
			err := d.mailer.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: html})
			results[i] = RecipientResult{Recipient: to, OK: err == nil, Err: err}
			if err != nil {
				metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelEmail, metrics.OutcomeFailed).Inc()
				slog.Error("Failed to send match email",
					slog.String("match_id", in.MatchID),
					slog.String("recipient", to),
					slog.String("error", err.Error()))
				return err
			}
			metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelEmail, metrics.OutcomeOK).Inc()
			return nil
		})
	}
	// errgroup.Group without a derived context never cancels the other sends.
	if err := g.Wait(); err != nil {
		return NotifyResult{Results: results}, types.Wrap(types.ErrTransport, err)
	}

	slog.Info("Match email sent",
		slog.String("match_id", in.MatchID),
		slog.Int("recipients", len(recipients)))
	return NotifyResult{Sent: len(recipients), Results: results}, nil
}

// normalizeRecipients trims, drops empties and de-duplicates, keeping order.
func normalizeRecipients(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// PushInput is a push message for a match topic.
type PushInput struct {
	MatchID string
	Title   string
	Body    string
}

// PushResult carries the broker message id and the topic it went to.
type PushResult struct {
	ID    string
	Topic string
}

// Push sends one message to the match topic.
func (d *Dispatcher) Push(ctx context.Context, in PushInput) (PushResult, error) {
	topic := push.Topic(in.MatchID)

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Body) == "" {
		metrics.NotificationRejectedTotal.WithLabelValues(metrics.ChannelPush, "validation").Inc()
		return PushResult{Topic: topic}, types.Validationf("title and body are required")
	}
	if d.broker == nil {
		metrics.NotificationRejectedTotal.WithLabelValues(metrics.ChannelPush, "unavailable").Inc()
		return PushResult{Topic: topic}, fmt.Errorf("%w: push broker is not configured", types.ErrChannelUnavailable)
	}

	ctx, cancel := d.sendContext(ctx)
	defer cancel()

	id, err := d.broker.Publish(ctx, topic, push.Message{MatchID: in.MatchID, Title: in.Title, Body: in.Body})
	if err != nil {
		metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelPush, metrics.OutcomeFailed).Inc()
		slog.Error("Failed to push match message",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
		return PushResult{Topic: topic}, types.Wrap(types.ErrTransport, err)
	}

	metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelPush, metrics.OutcomeOK).Inc()
	slog.Info("Match push sent", slog.String("topic", topic), slog.String("message_id", id))
	return PushResult{ID: id, Topic: topic}, nil
}

// SendCartConfirmation emails the "item added to cart" confirmation.
func (d *Dispatcher) SendCartConfirmation(ctx context.Context, to string, item mailer.CartItem) error {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(item.ProductName) == "" {
		return types.Validationf("email and product name are required")
	}
	if d.mailer == nil {
		return fmt.Errorf("%w: email transport is not configured", types.ErrChannelUnavailable)
	}

	html, err := mailer.CartConfirmation(item)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	ctx, cancel := d.sendContext(ctx)
	defer cancel()

	if err := d.mailer.Send(ctx, mailer.Message{To: to, Subject: mailer.CartSubject, HTML: html}); err != nil {
		metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelEmail, metrics.OutcomeFailed).Inc()
		return types.Wrap(types.ErrTransport, err)
	}
	metrics.NotificationSendsTotal.WithLabelValues(metrics.ChannelEmail, metrics.OutcomeOK).Inc()
	return nil
}

// sendContext detaches sends from the caller's cancellation: once issued they
// run to completion or failure. Only the configured timeout bounds them.
func (d *Dispatcher) sendContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if d.timeout > 0 {
		return context.WithTimeout(ctx, d.timeout)
	}
	return ctx, func() {}
}
