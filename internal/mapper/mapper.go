// Package mapper flattens one feed response window into destination rows.
// It performs no I/O; entries that cannot be mapped are reported as
// *EntryError values and skipped, the rest of the window is kept.
package mapper

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/orbitlytics/neocollector/internal"
	"github.com/orbitlytics/neocollector/internal/feed"
)

// EntryError is a single feed entry that could not be mapped to a row.
type EntryError struct {
	Date        string
	ReferenceID string
	Err         error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("mapper: entry %s on %s: %v", e.ReferenceID, e.Date, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Map flattens res into rows, honoring endDate as the inclusive upper bound.
// A non-detailed window spans a fixed number of days and may carry date keys
// past the requested range; all entries under such keys are dropped. Date
// keys are processed in ascending order so output is deterministic.
func Map(res *feed.Response, endDate time.Time) ([]internal.NeoRecord, []*EntryError) {
	dates := make([]string, 0, len(res.NearEarthObjects))
	for date := range res.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var records []internal.NeoRecord
	var errs []*EntryError

	for _, date := range dates {
		day, err := time.Parse(feed.DateFormat, date)
		if err != nil {
			errs = append(errs, &EntryError{Date: date, Err: fmt.Errorf("unparsable date key: %w", err)})
			continue
		}
		if day.After(endDate) {
			continue
		}

		for _, obj := range res.NearEarthObjects[date] {
			record, err := mapObject(obj)
			if err != nil {
				errs = append(errs, &EntryError{
					Date:        date,
					ReferenceID: obj.NeoReferenceID,
					Err:         err,
				})
				continue
			}
			records = append(records, record)
		}
	}

	return records, errs
}

func mapObject(obj feed.Object) (internal.NeoRecord, error) {
	// The feed is assumed to carry exactly one close-approach entry per
	// object in a dated window; only the first is read.
	if len(obj.CloseApproachData) == 0 {
		return internal.NeoRecord{}, fmt.Errorf("no close approach data")
	}
	approach := obj.CloseApproachData[0]

	velocity, err := strconv.ParseFloat(approach.RelativeVelocity.MilesPerHour, 64)
	if err != nil {
		return internal.NeoRecord{}, fmt.Errorf("relative velocity: %w", err)
	}

	distance, err := strconv.ParseFloat(approach.MissDistance.Miles, 64)
	if err != nil {
		return internal.NeoRecord{}, fmt.Errorf("miss distance: %w", err)
	}

	return internal.NeoRecord{
		ReferenceID:       internal.TruncateReferenceID(obj.NeoReferenceID),
		Name:              obj.Name,
		NasaJPLURL:        obj.NasaJPLURL,
		AbsoluteMagnitude: obj.AbsoluteMagnitude,
		Hazardous:         obj.Hazardous,
		SentryObject:      obj.SentryObject,
		DiameterMinMiles:  obj.EstimatedDiameter.Miles.Min,
		DiameterMaxMiles:  obj.EstimatedDiameter.Miles.Max,
		// Epoch is milliseconds since epoch UTC, truncated to whole seconds.
		CloseApproachAt:   time.Unix(approach.EpochDateCloseApproach/1000, 0).UTC(),
		VelocityMPH:       velocity,
		MissDistanceMiles: distance,
		OrbitingBody:      approach.OrbitingBody,
	}, nil
}
