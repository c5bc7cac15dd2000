package source

import (
	"strconv"
	"strings"

	"github.com/23Serhii/avesint-platform/internal/core/domain"
)

const (
	externalIDPrefix = "telegram:"
	handleSubPrefix  = "handle:"
	chatIDSubPrefix  = "chatid:"

	// UnknownExternalID is the sentinel identity for channels without a
	// username or numeric id. It is not unique across such channels.
	UnknownExternalID = "telegram:unknown"

	// UnknownHandle is the display name used when no handle or title is known.
	UnknownHandle = "unknown"
)

// NormalizeHandle strips a leading "@" and a literal "handle:" prefix from a
// raw channel handle and trims surrounding whitespace. Casing is preserved.
func NormalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "@")

	if len(h) >= len(handleSubPrefix) && strings.EqualFold(h[:len(handleSubPrefix)], handleSubPrefix) {
		h = h[len(handleSubPrefix):]
	}

	return strings.TrimSpace(h)
}

// Identity derives the stable external identifier for a channel. The
// derivation is pure: the same descriptor always yields the same identity,
// regardless of how the channel was discovered.
//
// Rule order: public username (keyed lower-case), then numeric chat id,
// then the unknown sentinel.
func Identity(ch domain.ChannelDescriptor) domain.SourceIdentity {
	if handle := NormalizeHandle(ch.Username); handle != "" {
		return domain.SourceIdentity{
			StableExternalID: externalIDPrefix + handleSubPrefix + strings.ToLower(handle),
			PublicHandle:     handle,
		}
	}

	if ch.ChatID != 0 {
		return domain.SourceIdentity{
			StableExternalID: externalIDPrefix + chatIDSubPrefix + strconv.FormatInt(ch.ChatID, 10),
		}
	}

	return domain.SourceIdentity{StableExternalID: UnknownExternalID}
}

// HandleFromExternalID extracts a channel handle from a composite external
// identifier. Supported forms:
//
//	telegram:<username>
//	telegram:handle:<username>
//	telegram:chatid:<id>  (no handle, returns "")
//
// Unrecognized prefixes yield "".
func HandleFromExternalID(externalID string) string {
	ext := strings.TrimSpace(externalID)
	if !strings.HasPrefix(ext, externalIDPrefix) {
		return ""
	}

	rest := strings.TrimSpace(ext[len(externalIDPrefix):])
	if rest == "" {
		return ""
	}

	lower := strings.ToLower(rest)

	switch {
	case strings.HasPrefix(lower, handleSubPrefix):
		return NormalizeHandle(rest[len(handleSubPrefix):])
	case strings.HasPrefix(lower, chatIDSubPrefix):
		return ""
	default:
		return NormalizeHandle(rest)
	}
}

// DisplayName picks the human-readable channel name for payloads and logs:
// the public handle when known, the channel title otherwise, or the unknown
// sentinel when neither is available.
func DisplayName(identity domain.SourceIdentity, ch domain.ChannelDescriptor) string {
	if name := NormalizeHandle(identity.PublicHandle); name != "" {
		return name
	}

	if name := NormalizeHandle(ch.Title); name != "" {
		return name
	}

	return UnknownHandle
}
