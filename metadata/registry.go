package metadata

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zsefvlol/timezonemapper"
)

// Fields is the registry of every metadata field, in a stable order
var Fields = []*Field{
	{
		Key:          "filename",
		Type:         String,
		MaxLength:    260,
		ImportFields: names("FileName"),
		media:        column(func(c *Columns) **string { return &c.MediaFilename }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenFilename }),
	},
	{
		Key:          "title",
		Type:         String,
		MaxLength:    200,
		ImportFields: names("Title", "ObjectName", "Headline", "XPTitle"),
		media:        column(func(c *Columns) **string { return &c.MediaTitle }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenTitle }),
	},
	{
		Key:        "taken",
		Type:       DateTime,
		Import:     importTaken,
		media:      column(func(c *Columns) **time.Time { return &c.MediaTaken }),
		overridden: column(func(c *Columns) **time.Time { return &c.OverriddenTaken }),
	},
	{
		Key:        "offset",
		Type:       Integer,
		Import:     importOffset,
		media:      column(func(c *Columns) **int64 { return &c.MediaOffset }),
		overridden: column(func(c *Columns) **int64 { return &c.OverriddenOffset }),
	},
	{
		Key:          "longitude",
		Type:         Float,
		ImportFields: names("GPSLongitude"),
		media:        column(func(c *Columns) **float64 { return &c.MediaLongitude }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenLongitude }),
	},
	{
		Key:          "latitude",
		Type:         Float,
		ImportFields: names("GPSLatitude"),
		media:        column(func(c *Columns) **float64 { return &c.MediaLatitude }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenLatitude }),
	},
	{
		Key:          "altitude",
		Type:         Float,
		ImportFields: names("GPSAltitude"),
		media:        column(func(c *Columns) **float64 { return &c.MediaAltitude }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenAltitude }),
	},
	{
		Key:          "location",
		Type:         String,
		MaxLength:    200,
		ImportFields: names("Location", "Sub-location"),
		media:        column(func(c *Columns) **string { return &c.MediaLocation }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenLocation }),
	},
	{
		Key:          "city",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("City"),
		media:        column(func(c *Columns) **string { return &c.MediaCity }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenCity }),
	},
	{
		Key:          "state",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("State", "Province-State"),
		media:        column(func(c *Columns) **string { return &c.MediaState }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenState }),
	},
	{
		Key:          "country",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("Country", "Country-PrimaryLocationName"),
		media:        column(func(c *Columns) **string { return &c.MediaCountry }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenCountry }),
	},
	{
		Key:     "orientation",
		Type:    Integer,
		Default: int64(1),
		ImportFields: []ImportField{
			{Name: "Orientation", Parse: parseOrientation},
			{Name: "Rotation", Parse: parseRotation},
		},
		ShouldImport: func(s Subject) bool { return !s.IsVideo() },
		media:        column(func(c *Columns) **int64 { return &c.MediaOrientation }),
		overridden:   column(func(c *Columns) **int64 { return &c.OverriddenOrientation }),
	},
	{
		Key:          "make",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("Make"),
		media:        column(func(c *Columns) **string { return &c.MediaMake }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenMake }),
	},
	{
		Key:          "model",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("Model"),
		media:        column(func(c *Columns) **string { return &c.MediaModel }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenModel }),
	},
	{
		Key:          "lens",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("LensModel", "Lens"),
		media:        column(func(c *Columns) **string { return &c.MediaLens }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenLens }),
	},
	{
		Key:          "photographer",
		Type:         String,
		MaxLength:    100,
		ImportFields: names("Artist", "Creator", "By-line"),
		media:        column(func(c *Columns) **string { return &c.MediaPhotographer }),
		overridden:   column(func(c *Columns) **string { return &c.OverriddenPhotographer }),
	},
	{
		Key:          "aperture",
		Type:         Float,
		ImportFields: names("FNumber", "ApertureValue"),
		media:        column(func(c *Columns) **float64 { return &c.MediaAperture }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenAperture }),
	},
	{
		Key:          "exposure",
		Type:         Float,
		ImportFields: names("ExposureTime", "ShutterSpeedValue"),
		media:        column(func(c *Columns) **float64 { return &c.MediaExposure }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenExposure }),
	},
	{
		Key:          "iso",
		Type:         Integer,
		ImportFields: names("ISO"),
		media:        column(func(c *Columns) **int64 { return &c.MediaISO }),
		overridden:   column(func(c *Columns) **int64 { return &c.OverriddenISO }),
	},
	{
		Key:          "focal_length",
		Type:         Float,
		ImportFields: names("FocalLength"),
		media:        column(func(c *Columns) **float64 { return &c.MediaFocalLength }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenFocalLength }),
	},
	{
		Key:          "bitrate",
		Type:         Float,
		ImportFields: names("AvgBitrate"),
		media:        column(func(c *Columns) **float64 { return &c.MediaBitrate }),
		overridden:   column(func(c *Columns) **float64 { return &c.OverriddenBitrate }),
	},
}

var fieldsByKey = func() map[string]*Field {
	result := make(map[string]*Field, len(Fields))
	for _, f := range Fields {
		result[f.Key] = f
	}
	return result
}()

// Lookup finds a field by key
func Lookup(key string) (*Field, bool) {
	f, ok := fieldsByKey[key]
	return f, ok
}

func names(list ...string) []ImportField {
	result := make([]ImportField, len(list))
	for i, name := range list {
		result[i] = ImportField{Name: name}
	}
	return result
}

// Import stores every field found in rec as the imported value. Overrides
// are left alone.
func Import(c *Columns, rec Record, s Subject) {
	for _, f := range Fields {
		var value any
		if f.ShouldImport == nil || f.ShouldImport(s) {
			if v, ok := f.Extract(rec); ok {
				value = v
			}
		}
		if value == nil {
			value = f.Default
		}
		f.media.set(c, value)
	}
}

var (
	subSecondDateFields = []string{"SubSecDateTimeOriginal", "SubSecCreateDate", "SubSecModifyDate"}
	dateFields          = []string{"DateTimeOriginal", "CreateDate", "DateTimeCreated", "MediaCreateDate", "TrackCreateDate", "ModifyDate"}
	splitDateFields     = [][2]string{{"DateCreated", "TimeCreated"}, {"DigitalCreationDate", "DigitalCreationTime"}}
	subSecondFields     = []string{"SubSecTimeOriginal", "SubSecTimeDigitized", "SubSecTime"}
)

// importTaken tries sub-second datetimes, then whole-second ones, then a
// separate date and time, and patches the fraction from SubSec* last
func importTaken(rec Record) (any, bool) {
	for _, name := range subSecondDateFields {
		if t, ok := parseExifDate(rec[name]); ok {
			return t, true
		}
	}
	var taken time.Time
	found := false
	for _, name := range dateFields {
		if t, ok := parseExifDate(rec[name]); ok {
			taken, found = t, true
			break
		}
	}
	if !found {
		for _, pair := range splitDateFields {
			date, ok1 := rec[pair[0]].(string)
			clock, ok2 := rec[pair[1]].(string)
			if !ok1 || !ok2 {
				continue
			}
			if t, ok := parseExifDate(strings.TrimSpace(date) + " " + strings.TrimSpace(clock)); ok {
				taken, found = t, true
				break
			}
		}
	}
	if !found {
		return nil, false
	}
	if taken.Nanosecond() == 0 {
		for _, name := range subSecondFields {
			if ns, ok := parseSubSecond(rec[name]); ok {
				taken = taken.Add(time.Duration(ns))
				break
			}
		}
	}
	return taken, true
}

var exifDateLayouts = []string{
	"2006:01:02 15:04:05.999999999",
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// parseExifDate reads exiftool dates like "2017:06:21 10:15:30.25+02:00"
// keeping the wall clock
func parseExifDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s, _ = splitZone(strings.TrimSpace(s))
	for _, layout := range exifDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// splitZone cuts a trailing "Z" or "[+-]HH:MM" off s
func splitZone(s string) (string, string) {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1], "Z"
	}
	if len(s) > 6 {
		tail := s[len(s)-6:]
		if (tail[0] == '+' || tail[0] == '-') && tail[3] == ':' {
			return s[:len(s)-6], tail
		}
	}
	return s, ""
}

// parseSubSecond turns the digits of a SubSec field into nanoseconds,
// "25" means 0.25 seconds
func parseSubSecond(v any) (int, bool) {
	digits := strings.TrimSpace(toString(v))
	if digits == "" || len(digits) > 9 {
		return 0, false
	}
	if _, err := strconv.Atoi(digits); err != nil {
		return 0, false
	}
	ns, _ := strconv.Atoi((digits + "000000000")[:9])
	return ns, true
}

var offsetFields = []string{"OffsetTimeOriginal", "OffsetTimeDigitized", "OffsetTime"}

// importOffset reads the zone offset in minutes, falling back to the
// zone at the GPS position when the file does not carry one
func importOffset(rec Record) (any, bool) {
	for _, name := range offsetFields {
		if s, ok := rec[name].(string); ok {
			if minutes := getTimeOffsetFrom(s); minutes != nil {
				return int64(*minutes), true
			}
		}
	}
	for _, name := range subSecondDateFields {
		if s, ok := rec[name].(string); ok {
			if _, zone := splitZone(strings.TrimSpace(s)); zone != "" && zone != "Z" {
				if minutes := getTimeOffsetFrom(zone); minutes != nil {
					return int64(*minutes), true
				}
			}
		}
	}
	lat, ok1 := toFloat(rec["GPSLatitude"])
	lng, ok2 := toFloat(rec["GPSLongitude"])
	if !ok1 || !ok2 {
		return nil, false
	}
	taken, ok := importTaken(rec)
	if !ok {
		return nil, false
	}
	zone, err := time.LoadLocation(timezonemapper.LatLngToTimezoneString(lat, lng))
	if err != nil || zone == nil {
		return nil, false
	}
	t := taken.(time.Time)
	_, seconds := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone).Zone()
	return int64(seconds / 60), true
}

// getTimeOffsetFrom returns the offset in minutes (or nil on error), input format is "+09:00"
func getTimeOffsetFrom(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	negative := s[0] == '-'
	parts := strings.SplitN(strings.TrimLeft(s, "+-"), ":", 2)
	if len(parts) != 2 {
		return nil
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours > 23 {
		return nil
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins > 59 {
		return nil
	}
	result := hours*60 + mins
	if negative {
		result = -result
	}
	return &result
}

// parseOrientation accepts EXIF orientation values 1-8
func parseOrientation(v any) (any, bool) {
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) || n < 1 || n > 8 {
		return parseRotation(v)
	}
	return int64(n), true
}

var rotations = map[int64]int64{0: 1, 90: 6, 180: 3, 270: 8}

// parseRotation maps a clockwise rotation in degrees to EXIF orientation
func parseRotation(v any) (any, bool) {
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) {
		return nil, false
	}
	degrees := int64(n) % 360
	if degrees < 0 {
		degrees += 360
	}
	orientation, ok := rotations[degrees]
	if !ok {
		return nil, false
	}
	return orientation, true
}
