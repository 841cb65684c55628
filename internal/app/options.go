package app

import (
	"time"

	"reviewit/internal/analytics"
)

// Options tunes the computed views. Zero fields take the defaults below.
type Options struct {
	WindowDays      int
	TopKeywords     int
	QuarterKeywords int
	WordCloud       analytics.FrequencyOptions
	MaskSize        int
	CacheTTL        time.Duration
	FetchWorkers    int
}

func DefaultOptions() Options {
	return Options{
		WindowDays:      analytics.DefaultTrailingDays,
		TopKeywords:     10,
		QuarterKeywords: 4,
		WordCloud: analytics.FrequencyOptions{
			MinCount:    analytics.DefaultWordCloudMinCount,
			MaxKeywords: analytics.DefaultWordCloudMax,
		},
		MaskSize:     800,
		CacheTTL:     15 * time.Minute,
		FetchWorkers: 8,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WindowDays <= 0 {
		o.WindowDays = d.WindowDays
	}
	if o.TopKeywords <= 0 {
		o.TopKeywords = d.TopKeywords
	}
	if o.QuarterKeywords <= 0 {
		o.QuarterKeywords = d.QuarterKeywords
	}
	if o.WordCloud.MinCount <= 0 {
		o.WordCloud.MinCount = d.WordCloud.MinCount
	}
	if o.WordCloud.MaxKeywords <= 0 {
		o.WordCloud.MaxKeywords = d.WordCloud.MaxKeywords
	}
	if o.MaskSize <= 0 {
		o.MaskSize = d.MaskSize
	}
	if o.FetchWorkers <= 0 {
		o.FetchWorkers = d.FetchWorkers
	}
	return o
}
