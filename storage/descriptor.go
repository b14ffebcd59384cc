package storage

import (
	"encoding/json"
	"mediacat/fault"
)

type Type string

const (
	TypeServer    Type = "server"
	TypeBackblaze Type = "backblaze"
	TypeS3        Type = "s3"
)

// Descriptor says where a catalog keeps its main area. Only the fields of
// its Type are used.
type Descriptor struct {
	Type     Type   `json:"-"`
	KeyID    string `json:"key_id,omitempty"`
	Key      string `json:"key,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	Path     string `json:"path,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (d Descriptor) Validate() error {
	missing := func(field string) error {
		return fault.ValidationFailure.New(fault.Args{"storage": string(d.Type), "missing": field})
	}
	switch d.Type {
	case TypeServer:
		if d != (Descriptor{Type: TypeServer}) {
			return fault.ValidationFailure.New(fault.Args{"storage": string(d.Type), "reason": "server storage takes no parameters"})
		}
		return nil
	case TypeBackblaze, TypeS3:
		if d.KeyID == "" {
			return missing("key_id")
		}
		if d.Key == "" {
			return missing("key")
		}
		if d.Bucket == "" {
			return missing("bucket")
		}
		if d.Type == TypeS3 && d.Region == "" {
			return missing("region")
		}
		if d.Type == TypeBackblaze && (d.Region != "" || d.Endpoint != "") {
			return fault.ValidationFailure.New(fault.Args{"storage": string(d.Type), "reason": "region and endpoint are s3 parameters"})
		}
		if _, err := cleanPath(d.Path); err != nil {
			return fault.ValidationFailure.Wrap(err, fault.Args{"storage": string(d.Type), "field": "path"})
		}
		return nil
	}
	return fault.ValidationFailure.New(fault.Args{"storage": string(d.Type), "reason": "unknown storage type"})
}

// Payload encodes the type specific parameters for persistence
func (d Descriptor) Payload() (string, error) {
	if d.Type == TypeServer {
		return "", nil
	}
	data, err := json.Marshal(d)
	return string(data), err
}

func ParseDescriptor(t Type, payload string) (Descriptor, error) {
	d := Descriptor{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return d, fault.ValidationFailure.Wrap(err, fault.Args{"storage": string(t)})
		}
	}
	d.Type = t
	return d, d.Validate()
}

// cacheKey identifies equal descriptors
func (d Descriptor) cacheKey() string {
	payload, _ := d.Payload()
	return string(d.Type) + ":" + payload
}
