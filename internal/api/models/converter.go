package models

import (
	"fmt"
	"sort"

	"github.com/OrcaXS/animeloop-server/internal/database"
)

// FileURLProvider derives the public rendition URLs of a loop from its id.
type FileURLProvider interface {
	PublicURLs(id string, cdn bool) map[string]string
}

// ToLoop converts a stored loop into its public shape. A populated reference
// becomes a nested object; a bare one becomes an ...id field. The input is
// not mutated.
func ToLoop(loop database.Loop, files FileURLProvider, cdn bool) Loop {
	out := Loop{
		ID:         loop.ID.Hex(),
		Duration:   loop.Duration,
		Period:     Period{Begin: loop.Period.Begin, End: loop.Period.End},
		Frame:      Frame{Begin: loop.Frame.Begin, End: loop.Frame.End},
		SourceFrom: loop.SourceFrom,
		UploadDate: loop.UploadDate,
		Files:      files.PublicURLs(loop.ID.Hex(), cdn),
	}

	if loop.Episode.Resolved() {
		episode := ToEpisode(*loop.Episode.Doc)
		out.Episode = &episode
	} else {
		out.EpisodeID = loop.Episode.ID.Hex()
	}

	if loop.Series.Resolved() {
		series := ToSeries(*loop.Series.Doc)
		out.Series = &series
	} else {
		out.SeriesID = loop.Series.ID.Hex()
	}

	return out
}

// ToLoops converts a slice of stored loops.
func ToLoops(loops []database.Loop, files FileURLProvider, cdn bool) []Loop {
	out := make([]Loop, len(loops))
	for i, loop := range loops {
		out[i] = ToLoop(loop, files, cdn)
	}
	return out
}

// ToEpisode converts a stored episode into its public shape.
func ToEpisode(episode database.Episode) Episode {
	out := Episode{
		ID: episode.ID.Hex(),
		No: episode.No,
	}

	if episode.Series.Resolved() {
		series := ToSeries(*episode.Series.Doc)
		out.Series = &series
	} else {
		out.SeriesID = episode.Series.ID.Hex()
	}

	return out
}

// ToEpisodes converts a slice of stored episodes, sorted by episode number
// using plain string comparison. The lexicographic order ("10" before "2")
// is part of the public contract and must not become numeric.
func ToEpisodes(episodes []database.Episode) []Episode {
	out := make([]Episode, len(episodes))
	for i, episode := range episodes {
		out[i] = ToEpisode(episode)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].No < out[j].No })
	return out
}

// ToSeries converts a stored series into its public shape.
func ToSeries(series database.Series) Series {
	year := series.StartDateFuzzy / 10000
	month := series.StartDateFuzzy / 100 % 100

	return Series{
		ID:             series.ID.Hex(),
		Title:          series.Title,
		TitleRomaji:    series.TitleRomaji,
		TitleEnglish:   series.TitleEnglish,
		TitleJapanese:  series.TitleJapanese,
		Description:    series.Description,
		Genres:         series.Genres,
		Type:           series.Type,
		TotalEpisodes:  series.TotalEpisodes,
		AnilistID:      series.AnilistID,
		Season:         fmt.Sprintf("%d-%d", year, month),
		ImageURLLarge:  series.ImageURLLarge,
		ImageURLBanner: series.ImageURLBanner,
	}
}

// ToSeriesList converts a slice of stored series.
func ToSeriesList(series []database.Series) []Series {
	out := make([]Series, len(series))
	for i, s := range series {
		out[i] = ToSeries(s)
	}
	return out
}

// ToTag converts a stored tag into its public shape.
func ToTag(tag database.Tag) Tag {
	return Tag{
		ID:         tag.ID.Hex(),
		LoopID:     tag.LoopID.Hex(),
		Name:       tag.Name,
		Type:       tag.Type,
		Source:     tag.Source,
		Confidence: tag.Confidence,
	}
}

// ToTags converts a slice of stored tags.
func ToTags(tags []database.Tag) []Tag {
	out := make([]Tag, len(tags))
	for i, tag := range tags {
		out[i] = ToTag(tag)
	}
	return out
}
