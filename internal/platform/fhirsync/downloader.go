package fhirsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/pagination"
)

// Sink receives every downloaded search page in order. An error from the
// sink aborts the run.
type Sink func(ctx context.Context, kind Kind, page *fhir.Bundle) error

// Result summarizes one download run.
type Result struct {
	Profile   string     `json:"profile"`
	Kind      Kind       `json:"kind"`
	Since     *time.Time `json:"since,omitempty"`
	Pages     int        `json:"pages"`
	Resources int        `json:"resources"`
	Watermark *time.Time `json:"watermark,omitempty"`
}

// Downloader pages through a kind of resources newer than the stored
// watermark.
type Downloader struct {
	source   func(Kind) FetchFunc
	store    WatermarkStore
	pageSize int
	logger   zerolog.Logger
	group    singleflight.Group
}

// NewDownloader creates a downloader. source returns the fetch function of
// a kind, e.g. (*HTTPFetcher).For.
func NewDownloader(source func(Kind) FetchFunc, store WatermarkStore, pageSize int, logger zerolog.Logger) *Downloader {
	return &Downloader{
		source:   source,
		store:    store,
		pageSize: pagination.ClampPageSize(pageSize),
		logger:   logger.With().Str("component", "sync").Logger(),
	}
}

// Run downloads all pages of kind for profile and hands them to sink. The
// watermark moves to the newest resource timestamp only when every page
// was fetched and accepted by the sink.
//
// Concurrent runs for the same profile and kind join the run in flight and
// share its result; only the first caller's sink receives pages.
func (d *Downloader) Run(ctx context.Context, profile string, kind Kind, sink Sink) (Result, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Result{}, err
	}
	v, err, shared := d.group.Do(profile+"/"+string(kind), func() (interface{}, error) {
		return d.run(ctx, profile, kind, sink)
	})
	if shared {
		d.logger.Debug().Str("profile", profile).Str("kind", string(kind)).Msg("joined running download")
	}
	res, _ := v.(Result)
	return res, err
}

func (d *Downloader) run(ctx context.Context, profile string, kind Kind, sink Sink) (Result, error) {
	since, err := d.store.Get(ctx, profile, kind)
	if err != nil {
		return Result{}, err
	}
	fetch := d.source(kind)
	log := d.logger.With().Str("profile", profile).Str("kind", string(kind)).Logger()

	page := func(ctx context.Context, next string) (pagination.PageResult[*fhir.Bundle], error) {
		data, err := fetch(ctx, since, d.pageSize, next)
		if err != nil {
			return pagination.PageResult[*fhir.Bundle]{}, err
		}
		b, err := fhir.ParseBundle(data)
		if err != nil {
			return pagination.PageResult[*fhir.Bundle]{}, fmt.Errorf("parse page: %w", err)
		}
		if sink != nil {
			if err := sink(ctx, kind, b); err != nil {
				return pagination.PageResult[*fhir.Bundle]{}, fmt.Errorf("sink: %w", err)
			}
		}
		matches := len(b.EntriesOfType(string(kind)))
		log.Debug().Int("resources", matches).Bool("has_next", b.NextLink() != "").Msg("page downloaded")
		return pagination.PageResult[*fhir.Bundle]{Count: matches, Payload: b, Next: b.NextLink()}, nil
	}

	fold := func(acc Result, b *fhir.Bundle) Result {
		acc.Pages++
		for _, e := range b.EntriesOfType(string(kind)) {
			acc.Resources++
			if t := kind.timestampOf(e.Resource); t != nil && (acc.Watermark == nil || t.After(*acc.Watermark)) {
				acc.Watermark = t
			}
		}
		return acc
	}

	res, err := pagination.DownloadAll[*fhir.Bundle, Result](ctx, d.pageSize, page,
		Result{Profile: profile, Kind: kind, Since: since}, fold)
	if err != nil {
		log.Warn().Err(err).Int("pages", res.Pages).Msg("download aborted, watermark kept")
		return res, err
	}

	if res.Watermark != nil && (since == nil || res.Watermark.After(*since)) {
		if err := d.store.Set(ctx, profile, kind, *res.Watermark); err != nil {
			return res, err
		}
		log.Info().Time("watermark", *res.Watermark).Msg("watermark advanced")
	}
	log.Info().Int("pages", res.Pages).Int("resources", res.Resources).Msg("download finished")
	return res, nil
}
