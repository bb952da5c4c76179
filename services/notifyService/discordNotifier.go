package notifyService

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"perfectTipsBot/models"
)

type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts an embed to the operators' channel. Quiet passes are not posted.
type DiscordNotifier struct {
	session   discordSender
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) NotifySettlement(ctx context.Context, report models.SettlementReport) error {
	if report.Quiet() {
		return nil
	}
	_, err := d.session.ChannelMessageSendEmbed(d.channelID, reportEmbed(report), discordgo.WithContext(ctx))
	return err
}

func reportEmbed(report models.SettlementReport) *discordgo.MessageEmbed {
	color := 0x00ff00
	if report.ManualReviewCount > 0 || report.WriteFailures > 0 || len(report.SkippedLeagues) > 0 {
		color = 0xffa500
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Settled", Value: fmt.Sprintf("%d", report.SettledCount), Inline: true},
		{Name: "Applied", Value: fmt.Sprintf("%d", report.AppliedCount), Inline: true},
		{Name: "Manual review", Value: fmt.Sprintf("%d", report.ManualReviewCount), Inline: true},
		{Name: "Accumulators", Value: fmt.Sprintf("%d", report.AccumulatorsSettled), Inline: true},
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📋 Settlement (%s)", report.Mode),
		Description: truncate(FormatReport(report), 4000),
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: report.RunID},
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
