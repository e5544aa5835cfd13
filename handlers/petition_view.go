package handlers

import (
	"errors"
	"log/slog"
	"time"

	"petitionhub-backend/analytics"
	"petitionhub-backend/locale"
	"petitionhub-backend/models"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// PetitionView is a petition as rendered to API clients, with its derived
// progress and ended state
type PetitionView struct {
	ID                uuid.UUID         `json:"id"`
	CreatorID         string            `json:"creator_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Category          models.Category   `json:"category"`
	CategoryLabel     string            `json:"category_label"`
	Target            int64             `json:"target"`
	Signatures        int64             `json:"signatures"`
	SignaturesDisplay string            `json:"signatures_display"`
	Progress          float64           `json:"progress"`
	ProgressDisplay   int64             `json:"progress_display"`
	Deadline          time.Time         `json:"deadline"`
	Ended             bool              `json:"ended"`
	Visibility        models.Visibility `json:"visibility"`
	CreatedAt         time.Time         `json:"created_at"`
}

type viewBuilder struct {
	lang language.Tag
	now  time.Time
	log  *slog.Logger
}

// requestLanguage prefers an explicit ?lang= over the Accept-Language header
func requestLanguage(c *gin.Context) language.Tag {
	if lang := c.Query("lang"); lang != "" {
		return locale.Match(lang)
	}
	return locale.Match(c.GetHeader("Accept-Language"))
}

func newViewBuilder(c *gin.Context, now time.Time, log *slog.Logger) viewBuilder {
	return viewBuilder{lang: requestLanguage(c), now: now, log: log}
}

func (b viewBuilder) petition(p *models.Petition) *PetitionView {
	if p == nil {
		return nil
	}

	progress, err := analytics.ProgressOf(p.Signatures, p.Target)
	if err != nil {
		if errors.Is(err, analytics.ErrDivisionByZero) {
			b.log.Warn("petition with invalid target", slog.String("petition_id", p.ID.String()), slog.Int64("target", p.Target))
		}
		progress = analytics.Progress{}
	}

	return &PetitionView{
		ID:                p.ID,
		CreatorID:         p.CreatorID,
		Title:             p.Title,
		Description:       p.Description,
		Category:          p.Category,
		CategoryLabel:     locale.Label(b.lang, p.Category),
		Target:            p.Target,
		Signatures:        p.Signatures,
		SignaturesDisplay: humanize.Comma(p.Signatures),
		Progress:          progress.Percent,
		ProgressDisplay:   progress.DisplayPercent,
		Deadline:          p.Deadline,
		Ended:             p.IsEnded(b.now),
		Visibility:        p.Visibility,
		CreatedAt:         p.CreatedAt,
	}
}

func (b viewBuilder) petitions(ps []*models.Petition) []*PetitionView {
	views := make([]*PetitionView, 0, len(ps))
	for _, p := range ps {
		views = append(views, b.petition(p))
	}
	return views
}
