// Package models defines the public response shapes of the API and the
// conversion from stored documents into them.
package models

import "time"

// Period is the display time range of a loop within its episode.
type Period struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

// Frame is the frame range of a loop within its episode.
type Frame struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Loop is the public shape of a loop. Exactly one of EpisodeID/Episode and
// one of SeriesID/Series is set, depending on whether the stored reference
// was populated.
type Loop struct {
	ID         string            `json:"id"`
	Duration   float64           `json:"duration"`
	Period     Period            `json:"period"`
	Frame      Frame             `json:"frame"`
	SourceFrom string            `json:"sourceFrom,omitempty"`
	UploadDate time.Time         `json:"uploadDate"`
	Files      map[string]string `json:"files"`

	EpisodeID string   `json:"episodeid,omitempty"`
	Episode   *Episode `json:"episode,omitempty"`
	SeriesID  string   `json:"seriesid,omitempty"`
	Series    *Series  `json:"series,omitempty"`
}

// Episode is the public shape of an episode.
type Episode struct {
	ID string `json:"id"`
	No string `json:"no"`

	SeriesID string  `json:"seriesid,omitempty"`
	Series   *Series `json:"series,omitempty"`
}

// Series is the public shape of a series. Season is derived from the fuzzy
// start date, formatted "YYYY-M".
type Series struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	TitleRomaji    string   `json:"title_romaji,omitempty"`
	TitleEnglish   string   `json:"title_english,omitempty"`
	TitleJapanese  string   `json:"title_japanese,omitempty"`
	Description    string   `json:"description,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Type           string   `json:"type,omitempty"`
	TotalEpisodes  int      `json:"total_episodes,omitempty"`
	AnilistID      int      `json:"anilist_id,omitempty"`
	Season         string   `json:"season"`
	ImageURLLarge  string   `json:"image_url_large,omitempty"`
	ImageURLBanner string   `json:"image_url_banner,omitempty"`
}

// Tag is the public shape of a loop tag.
type Tag struct {
	ID         string  `json:"id"`
	LoopID     string  `json:"loopid"`
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
