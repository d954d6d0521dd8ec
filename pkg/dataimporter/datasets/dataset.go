package datasets

import (
	"github.com/travigo/livetransit/pkg/ctdf"
)

type DataSet struct {
	Identifier    string             `yaml:"identifier"`
	DataSourceRef string             `json:"-" yaml:"-"`
	Format        DataSetFormat      `yaml:"format"`
	Mode          ctdf.TransportMode `yaml:"mode"`

	Provider Provider `yaml:"-"`

	Source               string               `yaml:"source"`
	SourceAuthentication SourceAuthentication `json:"-" yaml:"sourceauthentication"`

	// Text encoding of schedule archives, UTF-8 when empty
	Charset string `yaml:"charset"`
}

type SourceAuthentication struct {
	Query  map[string]string `yaml:"query"`
	Header map[string]string `yaml:"header"`
}

type DataSetFormat string

const (
	DataSetFormatGTFSSchedule         DataSetFormat = "gtfs-schedule"
	DataSetFormatGTFSVehiclePositions DataSetFormat = "gtfs-realtime-vehicle-positions"
	DataSetFormatGTFSTripUpdates      DataSetFormat = "gtfs-realtime-trip-updates"
)

type Provider struct {
	Name    string `yaml:"name"`
	Website string `yaml:"website"`
}
