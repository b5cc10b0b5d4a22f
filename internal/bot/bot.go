// Package bot wires the PractiBot subsystems together: vacancy store,
// conversation router, AI assistant, support-inbox mirroring, messaging
// provider, webhook receiver and admin API. Run blocks until the process
// receives a termination signal.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YoPracticando/PractiBot/internal/api"
	"github.com/YoPracticando/PractiBot/internal/chatwoot"
	"github.com/YoPracticando/PractiBot/internal/flow"
	"github.com/YoPracticando/PractiBot/internal/genai"
	"github.com/YoPracticando/PractiBot/internal/lockfile"
	"github.com/YoPracticando/PractiBot/internal/messaging"
	"github.com/YoPracticando/PractiBot/internal/models"
	"github.com/YoPracticando/PractiBot/internal/phone"
	"github.com/YoPracticando/PractiBot/internal/scheduler"
	"github.com/YoPracticando/PractiBot/internal/store"
	"github.com/YoPracticando/PractiBot/internal/twiliowhatsapp"
	"github.com/YoPracticando/PractiBot/internal/webhook"
	"github.com/YoPracticando/PractiBot/internal/whatsapp"
)

// DefaultStateDir is the default directory for PractiBot state data.
const DefaultStateDir = "/var/lib/practibot"

// TwilioInboundPath is the webhook-server route receiving Twilio inbound
// message callbacks when the Twilio provider is active.
const TwilioInboundPath = "/twilio/incoming"

// Opts collects per-subsystem option slices plus the few bot-level switches.
// The zero value runs with defaults: whatsmeow provider, SQLite store in the
// default state directory, assistant and mirroring disabled unless their
// credentials are configured.
type Opts struct {
	StateDir  string
	UseTwilio bool

	PhoneOpts    []phone.Option
	WhatsAppOpts []whatsapp.Option
	TwilioOpts   []twiliowhatsapp.Option
	StoreOpts    []store.Option
	GenAIOpts    []genai.Option
	ChatwootOpts []chatwoot.Option
	WebhookOpts  []webhook.Option
	APIOpts      []api.Option
}

// Run starts every subsystem and processes incoming messages until the
// context installed on SIGINT/SIGTERM is cancelled. It returns an error only
// for startup failures; a clean signal shutdown returns nil.
func Run(o Opts) error {
	stateDir := o.StateDir
	if stateDir == "" {
		stateDir = DefaultStateDir
	}

	lock, err := lockfile.AcquireLock(stateDir)
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("Bot.Run: lock release failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewVacancyStore(o.StoreOpts...)
	if err != nil {
		return fmt.Errorf("failed to open vacancy store: %w", err)
	}
	defer st.Close()

	assistant := buildAssistant(o.GenAIOpts)

	normalizer := phone.NewNormalizer(o.PhoneOpts...)
	mirror := buildMirror(ctx, normalizer, o.ChatwootOpts)

	routerOpts := []flow.Option{}
	if assistant != nil {
		routerOpts = append(routerOpts, flow.WithAssistant(assistant))
	}
	router := flow.NewRouter(st, routerOpts...)

	msgService, webhookOpts, err := buildMessagingService(o, normalizer)
	if err != nil {
		return err
	}
	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer func() {
		if err := msgService.Stop(); err != nil {
			slog.Warn("Bot.Run: messaging service stop failed", "error", err)
		}
	}()

	webhookSrv := webhook.NewServer(msgService, append(webhookOpts, o.WebhookOpts...)...)
	go func() {
		if err := webhookSrv.Start(ctx); err != nil {
			slog.Error("Bot.Run: webhook server exited", "error", err)
			stop()
		}
	}()

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	apiSrv := api.NewServer(st, msgService, append(o.APIOpts, api.WithScheduler(sched))...)
	go func() {
		if err := apiSrv.Start(ctx); err != nil {
			slog.Error("Bot.Run: admin API exited", "error", err)
			stop()
		}
	}()

	go drainReceipts(ctx, msgService.Receipts())

	slog.Info("Bot.Run: PractiBot started",
		"twilio", o.UseTwilio,
		"assistant_enabled", assistant != nil,
		"mirroring_enabled", mirror != nil)

	runLoop(ctx, msgService, router, mirror)
	slog.Info("Bot.Run: shutting down")
	return nil
}

// buildAssistant creates the AI reply generator, degrading to nil when no API
// key is configured so the router falls back to canned responses.
func buildAssistant(opts []genai.Option) *genai.Client {
	client, err := genai.NewClient(opts...)
	if err != nil {
		if errors.Is(err, genai.ErrAPIKeyNotSet) {
			slog.Warn("Bot.buildAssistant: no OpenAI API key, assistant disabled")
			return nil
		}
		slog.Error("Bot.buildAssistant: assistant unavailable", "error", err)
		return nil
	}
	return client
}

// buildMirror creates the support-inbox mirror, degrading to nil when the
// inbox connection is not configured or unreachable so message handling
// continues without mirroring.
func buildMirror(ctx context.Context, normalizer *phone.Normalizer, opts []chatwoot.Option) *chatwoot.Mirror {
	client, err := chatwoot.NewClient(normalizer, opts...)
	if err != nil {
		if errors.Is(err, chatwoot.ErrNotConfigured) {
			slog.Warn("Bot.buildMirror: support inbox not configured, mirroring disabled")
		} else {
			slog.Error("Bot.buildMirror: support inbox client unavailable", "error", err)
		}
		return nil
	}
	if err := client.GetAccountInfo(ctx); err != nil {
		slog.Warn("Bot.buildMirror: account discovery failed, using configured account ID", "error", err)
	}
	return chatwoot.NewMirror(client)
}

// buildMessagingService selects the messaging provider. Twilio mode also
// yields the webhook route receiving Twilio inbound callbacks; whatsmeow
// delivers incoming messages through its own event stream.
func buildMessagingService(o Opts, normalizer *phone.Normalizer) (messaging.Service, []webhook.Option, error) {
	if o.UseTwilio {
		client, err := twiliowhatsapp.NewClient(o.TwilioOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		svc := messaging.NewTwilioService(client)
		return svc, []webhook.Option{webhook.WithRoute(TwilioInboundPath, svc.TwilioWebhookHandler)}, nil
	}

	client, err := whatsapp.NewClient(o.WhatsAppOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
	}
	return messaging.NewWhatsAppService(client, normalizer), nil, nil
}

// runLoop consumes incoming messages until the context is cancelled or the
// provider closes its response channel.
func runLoop(ctx context.Context, msgService messaging.Service, router *flow.Router, mirror *chatwoot.Mirror) {
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-msgService.Responses():
			if !ok {
				slog.Info("Bot.runLoop: response channel closed")
				return
			}
			handleResponse(ctx, msgService, router, mirror, resp)
		}
	}
}

// handleResponse mirrors one incoming message to the support inbox, routes it
// through the conversation flow and sends the replies back to the user.
// Mirroring is best-effort and never blocks the reply.
func handleResponse(ctx context.Context, msgService messaging.Service, router *flow.Router, mirror *chatwoot.Mirror, resp models.Response) {
	slog.Debug("Bot.handleResponse: message received", "from", resp.From, "length", len(resp.Body))

	if mirror != nil {
		mirror.Deliver(ctx, resp.From, resp.Body, resp.Name)
	}

	for _, reply := range router.HandleMessage(ctx, resp.From, resp.Body) {
		if err := msgService.SendMessage(ctx, resp.From, reply); err != nil {
			slog.Error("Bot.handleResponse: reply send failed", "error", err, "to", resp.From)
			return
		}
	}
}

// drainReceipts logs delivery receipts so the channel never backs up.
func drainReceipts(ctx context.Context, receipts <-chan models.Receipt) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-receipts:
			if !ok {
				return
			}
			slog.Debug("Bot.drainReceipts: receipt", "to", r.To, "status", r.Status)
		}
	}
}
