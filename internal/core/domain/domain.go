package domain

import "time"

// ChannelDescriptor carries the raw identity of a Telegram channel as it
// arrived from the update stream or the backend registry. It is not persisted.
type ChannelDescriptor struct {
	Username string
	ChatID   int64
	Title    string
}

// SourceIdentity is the stable, discovery-path-independent identity of a
// channel. StableExternalID is identical across runs for the same channel.
// PublicHandle keeps the original casing of the username and is empty when
// the channel has no public username.
type SourceIdentity struct {
	StableExternalID string
	PublicHandle     string
}

// InboundMessage is one message event delivered by the Telegram reader.
// Immutable once constructed.
type InboundMessage struct {
	ID          int64
	Text        string
	PublishedAt time.Time
	HasMedia    bool
	Channel     ChannelDescriptor
}
