package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	"caseguard/models"
	"caseguard/notification"
	"caseguard/template"
)

// Delivery pairs one recipient with their rendered notification content.
type Delivery struct {
	Recipient models.Recipient
	Rendered  template.Rendered
	Variables map[string]string
}

// Dispatcher fans a batch of deliveries out over the channels a template
// supports. Sends run on a bounded worker pool so a slow gateway cannot
// serialize the whole batch, and every attempt lands in the audit sink
// regardless of outcome.
type Dispatcher struct {
	senders map[models.Channel]notification.Sender
	audit   AuditSink

	workers     int
	sendTimeout time.Duration
	countryCode string
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(senders []notification.Sender, audit AuditSink, workers int, sendTimeout time.Duration, countryCode string) *Dispatcher {
	byChannel := make(map[models.Channel]notification.Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		senders:     byChannel,
		audit:       audit,
		workers:     workers,
		sendTimeout: sendTimeout,
		countryCode: countryCode,
	}
}

type dispatchJob struct {
	delivery Delivery
	channel  models.Channel
}

// Dispatch sends each delivery over the channels derived from the
// template type, plus in-app which is always recorded. Missing contact
// details skip the channel; send failures fail it; one recipient's
// failure never blocks another's delivery.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	templateName string,
	tplType models.TemplateType,
	logID int64,
	deliveries []Delivery,
) *models.DispatchSummary {
	channels := []models.Channel{models.ChannelInApp}
	if tplType.SupportsEmail() {
		channels = append(channels, models.ChannelEmail)
	}
	if tplType.SupportsSMS() {
		channels = append(channels, models.ChannelSMS)
	}

	jobs := make(chan dispatchJob)
	summary := &models.DispatchSummary{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcome, detail := d.send(ctx, templateName, job)
				d.record(templateName, logID, job, outcome, detail)
				mu.Lock()
				summary.Count(outcome)
				mu.Unlock()
			}
		}()
	}

	for _, delivery := range deliveries {
		for _, channel := range channels {
			jobs <- dispatchJob{delivery: delivery, channel: channel}
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("[DISPATCH] template %s: %d attempted, %d sent, %d failed, %d skipped",
		templateName, summary.Attempted, summary.Sent, summary.Failed, summary.Skipped)
	return summary
}

// send attempts one channel for one recipient and classifies the outcome.
func (d *Dispatcher) send(ctx context.Context, templateName string, job dispatchJob) (models.DispatchOutcome, string) {
	sender, ok := d.senders[job.channel]
	if !ok {
		return models.DispatchSkipped, "no sender configured for channel"
	}

	msg := &notification.Message{
		UserID:       job.delivery.Recipient.UserID,
		Subject:      job.delivery.Rendered.Subject,
		TemplateName: templateName,
	}

	switch job.channel {
	case models.ChannelEmail:
		if job.delivery.Recipient.Email == "" {
			return models.DispatchSkipped, "recipient has no email address"
		}
		msg.Address = job.delivery.Recipient.Email
		msg.Body = job.delivery.Rendered.EmailBody

	case models.ChannelSMS:
		if job.delivery.Recipient.PhoneNumber == "" {
			return models.DispatchSkipped, "recipient has no phone number"
		}
		normalized, err := notification.NormalizePhone(job.delivery.Recipient.PhoneNumber, d.countryCode)
		if err != nil {
			return models.DispatchFailed, err.Error()
		}
		msg.Address = normalized
		msg.Body = job.delivery.Rendered.SMSBody

	case models.ChannelInApp:
		msg.Body = job.delivery.Rendered.EmailBody
		if msg.Body == "" {
			msg.Body = job.delivery.Rendered.SMSBody
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, msg); err != nil {
		return models.DispatchFailed, err.Error()
	}
	return models.DispatchSent, ""
}

// record writes the dispatch attempt to the audit sink. A sink failure is
// logged and swallowed so delivery accounting keeps moving.
func (d *Dispatcher) record(templateName string, logID int64, job dispatchJob, outcome models.DispatchOutcome, detail string) {
	rec := &models.DispatchRecord{
		UserID:       job.delivery.Recipient.UserID,
		Recipient:    job.delivery.Recipient.Name,
		Channel:      job.channel,
		TemplateName: templateName,
		Outcome:      outcome,
	}
	if logID > 0 {
		rec.LogID = sql.NullInt64{Int64: logID, Valid: true}
	}
	if detail != "" {
		rec.Detail = sql.NullString{String: detail, Valid: true}
	}
	if len(job.delivery.Variables) > 0 {
		if raw, err := json.Marshal(job.delivery.Variables); err == nil {
			rec.Variables = sql.NullString{String: string(raw), Valid: true}
		}
	}

	if err := d.audit.RecordDispatch(rec); err != nil {
		log.Printf("[DISPATCH] audit record failed for user %d channel %s: %v",
			job.delivery.Recipient.UserID, job.channel, err)
	}
}
