package infobox

import (
	"strings"

	"github.com/skohara/wikibox/internal/wikitext"
)

// AnimeInfo is the metadata extracted from one Infobox animanga block of a
// series article.
type AnimeInfo struct {
	Type        string `json:"type"`
	SeriesTitle string `json:"series_title"`
	Title       string `json:"title"`
	Director    string `json:"director"`
	Studio      string `json:"studio"`
}

// animangaPrefix selects the infobox family used by Japanese Wikipedia for
// anime and manga works. The parameter keys below are the Japanese labels
// those templates use.
const animangaPrefix = "Infobox animanga"

// ExtractAnime pulls AnimeInfo records out of the Infobox animanga templates
// of an article's source. The Header block carries the series title; each
// TVAnime, OVA, and Movie block yields one record.
func ExtractAnime(source string) ([]AnimeInfo, error) {
	boxes, err := wikitext.FindAll(source, func(name string) bool {
		return strings.HasPrefix(name, animangaPrefix)
	})
	if err != nil {
		return nil, err
	}

	var seriesTitle string
	for _, box := range boxes {
		if box.Name() == "Infobox animanga/Header" {
			seriesTitle = box.GetDefault("タイトル", "")
			break
		}
	}

	var infos []AnimeInfo
	for _, box := range boxes {
		info := AnimeInfo{Type: box.Name(), SeriesTitle: seriesTitle}
		switch box.Name() {
		case "Infobox animanga/TVAnime", "Infobox animanga/OVA":
			info.Title = box.GetDefault("タイトル", seriesTitle)
			info.Director = box.GetDefault("総監督", box.GetDefault("監督", ""))
			info.Studio = box.GetDefault("アニメーション制作", "")
		case "Infobox animanga/Movie":
			info.Title = box.GetDefault("タイトル", seriesTitle)
			info.Director = box.GetDefault("総監督", box.GetDefault("監督", ""))
			info.Studio = box.GetDefault("制作", "")
		default:
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}
