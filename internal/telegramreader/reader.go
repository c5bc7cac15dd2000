package telegramreader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/23Serhii/avesint-platform/internal/core/domain"
	"github.com/23Serhii/avesint-platform/internal/platform/config"
	"github.com/23Serhii/avesint-platform/internal/platform/observability"
)

// ErrChannelNotFound indicates the resolved peer carried no channel.
var ErrChannelNotFound = errors.New("channel not found")

// resolveInterval paces ContactsResolveUsername calls to stay clear of
// Telegram flood limits during large registrations.
const resolveInterval = time.Second

// Handler receives every in-scope message exactly once. It must not block:
// the pipeline spawns its own bounded units of work.
type Handler func(ctx context.Context, msg domain.InboundMessage)

type channelInfo struct {
	handle string
	title  string
}

// Reader maintains the live Telegram connection and dispatches new channel
// messages for the watched set to the handler. Updates are only delivered
// for channels the session account can see; watching is filtering, not
// joining.
type Reader struct {
	cfg            *config.Config
	handler        Handler
	logger         *zerolog.Logger
	resolveLimiter *rate.Limiter

	mu       sync.Mutex
	api      *tg.Client
	watched  map[string]struct{}
	channels map[int64]channelInfo
}

func New(cfg *config.Config, handler Handler, logger *zerolog.Logger) *Reader {
	return &Reader{
		cfg:            cfg,
		handler:        handler,
		logger:         logger,
		resolveLimiter: rate.NewLimiter(rate.Every(resolveInterval), 1),
		watched:        make(map[string]struct{}),
		channels:       make(map[int64]channelInfo),
	}
}

// Run connects, authenticates and blocks serving updates until the context
// is canceled.
func (r *Reader) Run(ctx context.Context) error {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewChannelMessage(r.onChannelMessage)

	client := telegram.NewClient(r.cfg.TGAPIID, r.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: r.cfg.TGSessionPath},
		UpdateHandler:  dispatcher,
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetch self: %w", err)
		}

		r.logger.Info().Str("username", self.Username).Int64("user_id", self.ID).Msg("Logged in to Telegram")

		r.mu.Lock()
		r.api = tg.NewClient(client)
		r.mu.Unlock()

		r.logger.Info().Msg("OSINT Telegram worker started, waiting for messages")

		<-ctx.Done()

		return ctx.Err()
	})
}

// Watch resolves the given handles and adds them to the watched set,
// returning the handles that are now watched. Handles that cannot be
// resolved are skipped and may be offered again later; an already-watched
// handle is never re-resolved. Before the connection is ready Watch is a
// no-op.
func (r *Reader) Watch(ctx context.Context, handles []string) []string {
	r.mu.Lock()
	api := r.api
	r.mu.Unlock()

	if api == nil {
		r.logger.Debug().Msg("Telegram connection not ready, skipping channel registration")

		return nil
	}

	var registered []string

	for _, handle := range handles {
		key := strings.ToLower(handle)

		r.mu.Lock()
		_, already := r.watched[key]
		r.mu.Unlock()

		if already {
			registered = append(registered, handle)

			continue
		}

		if err := r.resolveLimiter.Wait(ctx); err != nil {
			return registered
		}

		channel, err := r.resolveChannel(ctx, api, handle)
		if err != nil {
			r.logger.Warn().Err(err).Str("channel", handle).Msg("failed to resolve channel")

			continue
		}

		info := channelInfo{handle: handle, title: channel.Title}
		if channel.Username != "" {
			info.handle = channel.Username
		}

		r.mu.Lock()
		r.channels[channel.ID] = info
		r.watched[key] = struct{}{}
		watchedCount := len(r.watched)
		r.mu.Unlock()

		observability.WatchedChannels.Set(float64(watchedCount))

		registered = append(registered, handle)
	}

	return registered
}

func (r *Reader) resolveChannel(ctx context.Context, api *tg.Client, handle string) (*tg.Channel, error) {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: handle})
	if err != nil {
		return nil, fmt.Errorf("resolve username: %w", err)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			return channel, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, handle)
}

func (r *Reader) onChannelMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}

	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	r.mu.Lock()
	info, watched := r.channels[peer.ChannelID]
	r.mu.Unlock()

	if !watched {
		return nil
	}

	descriptor := domain.ChannelDescriptor{
		Username: info.handle,
		ChatID:   peer.ChannelID,
		Title:    info.title,
	}

	if channel, ok := e.Channels[peer.ChannelID]; ok {
		if channel.Username != "" {
			descriptor.Username = channel.Username
		}

		if channel.Title != "" {
			descriptor.Title = channel.Title
		}
	}

	_, hasMedia := msg.GetMedia()

	r.handler(ctx, domain.InboundMessage{
		ID:          int64(msg.ID),
		Text:        msg.Message,
		PublishedAt: time.Unix(int64(msg.Date), 0).UTC(),
		HasMedia:    hasMedia,
		Channel:     descriptor,
	})

	return nil
}
