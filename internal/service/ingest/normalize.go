// internal/service/ingest/normalize.go

package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"trendboard/internal/domain/trend"
)

// timestampShift is added to every upstream timestamp after the UTC marker
// is dropped. Stored documents depend on it, so it must not change.
const timestampShift = 5*time.Hour + 30*time.Minute

var errUnknownLayout = errors.New("unrecognized timestamp layout")

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizeTimestamp strips one trailing "Z", reads the remainder as a UTC
// wall-clock time and shifts it by +5h30m. Inputs with an explicit offset are
// converted to UTC first. An empty input yields nil without error.
func NormalizeTimestamp(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	value = strings.TrimSuffix(value, "Z")

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		shifted := t.UTC().Add(timestampShift)
		return &shifted, nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			shifted := t.Add(timestampShift)
			return &shifted, nil
		}
	}

	return nil, &trend.DataError{Field: "timeStamp", Value: raw, Err: errUnknownLayout}
}

// normalizeRecords copies upstream records for storage. Every image is
// stamped with the gender the page was fetched under and its timestamp is
// normalized; all other fields are kept as delivered. Malformed timestamps are
// nulled and reported through onMalformed.
func normalizeRecords(src []trend.Document, gender string, onMalformed func(*trend.DataError)) []trend.Document {
	records := make([]trend.Document, 0, len(src))

	for _, sr := range src {
		record := sr.Clone()

		if sr["images"] != nil {
			srcImages := sr.Documents("images")
			images := make([]trend.Document, 0, len(srcImages))
			for _, si := range srcImages {
				img := si.Clone()
				img["gender"] = gender
				img["timeStamp"] = normalizeImageTimestamp(si["timeStamp"], onMalformed)
				images = append(images, img)
			}
			record["images"] = images
		}

		records = append(records, record)
	}

	return records
}

// normalizeImageTimestamp returns the stored form of an image timestamp: a
// time.Time or nil
func normalizeImageTimestamp(raw interface{}, onMalformed func(*trend.DataError)) interface{} {
	if raw == nil {
		return nil
	}

	text, ok := raw.(string)
	if !ok {
		if onMalformed != nil {
			onMalformed(&trend.DataError{Field: "timeStamp", Value: fmt.Sprint(raw), Err: errUnknownLayout})
		}
		return nil
	}

	ts, err := NormalizeTimestamp(text)
	if err != nil {
		var dataErr *trend.DataError
		if errors.As(err, &dataErr) && onMalformed != nil {
			onMalformed(dataErr)
		}
		return nil
	}
	if ts == nil {
		return nil
	}
	return *ts
}

// collapseByName keeps the last record per name, in order of first
// appearance. Records without a name are reported through onSkip.
func collapseByName(records []trend.Document, gender string, onSkip func(trend.Document)) []trend.UniqueTrend {
	index := make(map[string]int, len(records))
	entries := make([]trend.UniqueTrend, 0, len(records))

	for _, r := range records {
		name := r.String("name")
		if strings.TrimSpace(name) == "" {
			if onSkip != nil {
				onSkip(r)
			}
			continue
		}

		entry := trend.UniqueTrend{Name: name, Gender: gender, Data: r}
		if i, ok := index[name]; ok {
			entries[i] = entry
			continue
		}

		index[name] = len(entries)
		entries = append(entries, entry)
	}

	return entries
}

// pageCount returns ceil(total / size), or 0 when there is nothing to fetch
func pageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
