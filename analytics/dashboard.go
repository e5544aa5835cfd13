package analytics

import (
	"time"

	"petitionhub-backend/models"
)

// Summary is the dashboard view over one creator's petitions
type Summary struct {
	TotalSignatures    int64
	TotalPetitionCount int
	Active             []*models.Petition
	Ended              []*models.Petition
	MostPopular        *models.Petition
}

// Summarize computes the dashboard summary at now. Every petition lands in
// exactly one of Active or Ended. MostPopular keeps the first petition seen
// with the highest signature count and is nil for an empty collection.
// The result is recomputed on every call; nothing is cached.
func Summarize(petitions []*models.Petition, now time.Time) Summary {
	s := Summary{
		TotalPetitionCount: len(petitions),
		Active:             []*models.Petition{},
		Ended:              []*models.Petition{},
	}

	for _, p := range petitions {
		s.TotalSignatures += p.Signatures

		if p.IsActive(now) {
			s.Active = append(s.Active, p)
		} else {
			s.Ended = append(s.Ended, p)
		}

		if s.MostPopular == nil || p.Signatures > s.MostPopular.Signatures {
			s.MostPopular = p
		}
	}

	return s
}

// DailyCount is the number of signatures collected on one UTC day
type DailyCount struct {
	Date       string `json:"date"`
	Signatures int64  `json:"signatures"`
}

// DailySignatures buckets signatures into `days` consecutive UTC days ending
// on the day of `until`. Days without signatures are reported as zero and
// signatures outside the window are ignored.
func DailySignatures(signatures []*models.Signature, until time.Time, days int) []DailyCount {
	if days <= 0 {
		return []DailyCount{}
	}

	last := truncateDay(until)
	first := last.AddDate(0, 0, -(days - 1))

	series := make([]DailyCount, days)
	for i := range series {
		series[i].Date = first.AddDate(0, 0, i).Format(time.DateOnly)
	}

	for _, sig := range signatures {
		day := truncateDay(sig.SignedAt)
		if day.Before(first) || day.After(last) {
			continue
		}
		idx := int(day.Sub(first).Hours() / 24)
		series[idx].Signatures++
	}

	return series
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
