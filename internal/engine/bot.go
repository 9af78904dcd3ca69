package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/OrcaXS/animeloop-server/internal/api/models"
	"github.com/OrcaXS/animeloop-server/internal/notify/announce"
	"github.com/charmbracelet/log"
)

// AnnounceRandomLoop picks one random loop and posts an announcement for it.
// It is the scheduled bot job and the backing of the tweet command.
func (e *Engine) AnnounceRandomLoop(ctx context.Context) error {
	if e.announcer == nil {
		return fmt.Errorf("announcement bot is not configured")
	}

	loops, err := e.GetRandomFullLoops(ctx, 1, false)
	if err != nil {
		return fmt.Errorf("failed to sample a random loop: %w", err)
	}
	if len(loops) == 0 {
		return fmt.Errorf("no loops stored yet")
	}
	loop := loops[0]

	msg := announce.Message{
		Message:  e.composeStatus(loop),
		Attach:   loop.Files["gif_360p"],
		ClickURL: fmt.Sprintf("%s/loop/%s", e.cfg.ServerURL, loop.ID),
	}
	if err := e.announcer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to post announcement: %w", err)
	}

	log.Info("announced random loop", "loop", loop.ID)
	return nil
}

// composeStatus builds the announcement text: the series titles with the
// episode number, the loop's begin timestamp, the hashtag and the loop page.
func (e *Engine) composeStatus(loop models.Loop) string {
	var episodeNo string
	series := loop.Series
	if loop.Episode != nil {
		episodeNo = loop.Episode.No
	}

	var b strings.Builder
	if series != nil {
		for _, title := range []string{series.TitleJapanese, series.Title, series.TitleEnglish} {
			if title == "" {
				continue
			}
			b.WriteString(strings.TrimSpace(title + " " + episodeNo))
			b.WriteString("\n")
		}
	}

	begin := loop.Period.Begin
	if len(begin) > 11 {
		begin = begin[:11]
	}
	b.WriteString(begin)
	b.WriteString("\n")

	if e.cfg.Bot.Hashtag != "" {
		b.WriteString(e.cfg.Bot.Hashtag)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%s/loop/%s", e.cfg.ServerURL, loop.ID))

	return b.String()
}
