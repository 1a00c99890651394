package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// discordSender abstracts the discordgo.Session method we use, enabling test mocks.
type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts alerts as embeds over the REST API; no gateway connection is opened.
type Discord struct {
	sess      discordSender
	channelID string
}

// NewDiscord creates a Discord notifier using a bot token.
func NewDiscord(botToken, channelID string) (*Discord, error) {
	if botToken == "" || channelID == "" {
		return nil, fmt.Errorf("alert: discord bot token and channel id are required")
	}
	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("alert: discord session: %w", err)
	}
	return &Discord{sess: dg, channelID: channelID}, nil
}

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, a Alert) error {
	embed := alertEmbed(a)
	if _, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("alert: discord send to %s: %w", d.channelID, err)
	}
	return nil
}

func alertEmbed(a Alert) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: a.Title(),
		Color: colorInt(a.Color()),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Asset", Value: a.AssetID, Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%.2f", a.Score), Inline: true},
			{Name: "Threshold", Value: fmt.Sprintf("%.2f", a.Threshold), Inline: true},
		},
	}
	if !a.At.IsZero() {
		embed.Timestamp = a.At.UTC().Format(time.RFC3339)
	}
	return embed
}

// colorInt converts "#rrggbb" to the integer Discord expects.
func colorInt(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
