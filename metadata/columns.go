package metadata

import "time"

// Columns holds the two columns of every metadata field: the imported
// value (media_<key>) and the user override (overridden_<key>).
// Embed it in the media row.
type Columns struct {
	MediaFilename          *string    `gorm:"column:media_filename;type:varchar(260)" json:"-"`
	OverriddenFilename     *string    `gorm:"column:overridden_filename;type:varchar(260)" json:"-"`
	MediaTitle             *string    `gorm:"column:media_title;type:varchar(200)" json:"-"`
	OverriddenTitle        *string    `gorm:"column:overridden_title;type:varchar(200)" json:"-"`
	MediaTaken             *time.Time `gorm:"column:media_taken" json:"-"`
	OverriddenTaken        *time.Time `gorm:"column:overridden_taken" json:"-"`
	MediaOffset            *int64     `gorm:"column:media_offset" json:"-"`
	OverriddenOffset       *int64     `gorm:"column:overridden_offset" json:"-"`
	MediaLongitude         *float64   `gorm:"column:media_longitude" json:"-"`
	OverriddenLongitude    *float64   `gorm:"column:overridden_longitude" json:"-"`
	MediaLatitude          *float64   `gorm:"column:media_latitude" json:"-"`
	OverriddenLatitude     *float64   `gorm:"column:overridden_latitude" json:"-"`
	MediaAltitude          *float64   `gorm:"column:media_altitude" json:"-"`
	OverriddenAltitude     *float64   `gorm:"column:overridden_altitude" json:"-"`
	MediaLocation          *string    `gorm:"column:media_location;type:varchar(200)" json:"-"`
	OverriddenLocation     *string    `gorm:"column:overridden_location;type:varchar(200)" json:"-"`
	MediaCity              *string    `gorm:"column:media_city;type:varchar(100)" json:"-"`
	OverriddenCity         *string    `gorm:"column:overridden_city;type:varchar(100)" json:"-"`
	MediaState             *string    `gorm:"column:media_state;type:varchar(100)" json:"-"`
	OverriddenState        *string    `gorm:"column:overridden_state;type:varchar(100)" json:"-"`
	MediaCountry           *string    `gorm:"column:media_country;type:varchar(100)" json:"-"`
	OverriddenCountry      *string    `gorm:"column:overridden_country;type:varchar(100)" json:"-"`
	MediaOrientation       *int64     `gorm:"column:media_orientation" json:"-"`
	OverriddenOrientation  *int64     `gorm:"column:overridden_orientation" json:"-"`
	MediaMake              *string    `gorm:"column:media_make;type:varchar(100)" json:"-"`
	OverriddenMake         *string    `gorm:"column:overridden_make;type:varchar(100)" json:"-"`
	MediaModel             *string    `gorm:"column:media_model;type:varchar(100)" json:"-"`
	OverriddenModel        *string    `gorm:"column:overridden_model;type:varchar(100)" json:"-"`
	MediaLens              *string    `gorm:"column:media_lens;type:varchar(100)" json:"-"`
	OverriddenLens         *string    `gorm:"column:overridden_lens;type:varchar(100)" json:"-"`
	MediaPhotographer      *string    `gorm:"column:media_photographer;type:varchar(100)" json:"-"`
	OverriddenPhotographer *string    `gorm:"column:overridden_photographer;type:varchar(100)" json:"-"`
	MediaAperture          *float64   `gorm:"column:media_aperture" json:"-"`
	OverriddenAperture     *float64   `gorm:"column:overridden_aperture" json:"-"`
	MediaExposure          *float64   `gorm:"column:media_exposure" json:"-"`
	OverriddenExposure     *float64   `gorm:"column:overridden_exposure" json:"-"`
	MediaISO               *int64     `gorm:"column:media_iso" json:"-"`
	OverriddenISO          *int64     `gorm:"column:overridden_iso" json:"-"`
	MediaFocalLength       *float64   `gorm:"column:media_focal_length" json:"-"`
	OverriddenFocalLength  *float64   `gorm:"column:overridden_focal_length" json:"-"`
	MediaBitrate           *float64   `gorm:"column:media_bitrate" json:"-"`
	OverriddenBitrate      *float64   `gorm:"column:overridden_bitrate" json:"-"`
}

// slot reads and writes one nullable column
type slot struct {
	get func(c *Columns) any
	set func(c *Columns, v any)
}

func column[T any](ptr func(c *Columns) **T) slot {
	return slot{
		get: func(c *Columns) any {
			if v := *ptr(c); v != nil {
				return *v
			}
			return nil
		},
		set: func(c *Columns, v any) {
			if v == nil {
				*ptr(c) = nil
				return
			}
			value := v.(T)
			*ptr(c) = &value
		},
	}
}
