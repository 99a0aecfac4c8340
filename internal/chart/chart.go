// Package chart turns windowed price histories into display-ready series.
package chart

import (
	"pricewatch/internal/analytics"
	"pricewatch/internal/model"
	"time"
)

// Palette is cycled by display index, so neighbouring series never share a colour.
var Palette = []string{
	"#4f46e5",
	"#9333ea",
	"#0891b2",
	"#059669",
	"#d97706",
	"#dc2626",
}

const (
	dateLayout = "Jan 2"
	timeLayout = "15:04"
)

type Input struct {
	SourceID  string
	StoreName string
	History   []model.PriceObservation
}

type Point struct {
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"fetchedAt"`
	Price     float64   `json:"price"`
}

type Series struct {
	SourceID  string           `json:"sourceId"`
	StoreName string           `json:"storeName"`
	Index     int              `json:"index"`
	Color     string           `json:"color"`
	Points    []Point          `json:"points"`
	Stats     *analytics.Stats `json:"stats"`
}

type Chart struct {
	Range  analytics.Range `json:"range"`
	Series []Series        `json:"series"`
}

func Color(index int) string {
	return Palette[index%len(Palette)]
}

// Project keeps the order of inputs as display order. Labels are rendered in loc, UTC when nil.
func Project(inputs []Input, r analytics.Range, now time.Time, loc *time.Location) Chart {
	if loc == nil {
		loc = time.UTC
	}
	c := Chart{Range: r, Series: make([]Series, 0, len(inputs))}
	for i, in := range inputs {
		w, st, ok := analytics.Summarize(in.History, r, now)
		s := Series{
			SourceID:  in.SourceID,
			StoreName: in.StoreName,
			Index:     i,
			Color:     Color(i),
			Points:    make([]Point, 0, len(w)),
		}
		if ok {
			s.Stats = &st
		}
		for _, o := range w {
			local := o.Timestamp.In(loc)
			s.Points = append(s.Points, Point{
				Date:      local.Format(dateLayout),
				Time:      local.Format(timeLayout),
				Timestamp: o.Timestamp,
				Price:     o.Price,
			})
		}
		c.Series = append(c.Series, s)
	}
	return c
}
