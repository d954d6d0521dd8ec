package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetransit/pkg/ctdf"
)

func TestLoadDataSources(t *testing.T) {
	directory := t.TempDir()

	contents := `identifier: test-city
region: test
provider:
  name: Test Transit
datasets:
  - identifier: bus-schedule
    format: gtfs-schedule
    mode: BUS
    source: https://example.com/bus.zip
  - identifier: bus-vehicle-positions
    format: gtfs-realtime-vehicle-positions
    mode: BUS
    source: https://example.com/vp.pb
    sourceauthentication:
      header:
        X-Api-Key: secret
---
identifier: other-city
datasets:
  - identifier: tram-schedule
    format: gtfs-schedule
    mode: TRAM
    source: https://example.org/tram.zip
`
	require.NoError(t, os.WriteFile(filepath.Join(directory, "sources.yaml"), []byte(contents), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(directory, "README.md"), []byte("ignored"), 0o644))

	dataSources, err := LoadDataSources(directory)
	require.NoError(t, err)
	require.Len(t, dataSources, 2)

	source := dataSources[0]
	assert.Equal(t, "test-city", source.Identifier)
	assert.Equal(t, "Test Transit", source.Provider.Name)

	schedules := source.OfFormat(DataSetFormatGTFSSchedule)
	require.Len(t, schedules, 1)
	assert.Equal(t, "test-city-bus-schedule", schedules[0].Identifier)
	assert.Equal(t, "test-city", schedules[0].DataSourceRef)
	assert.Equal(t, ctdf.TransportModeBus, schedules[0].Mode)
	assert.Equal(t, "Test Transit", schedules[0].Provider.Name)

	positions := source.OfFormat(DataSetFormatGTFSVehiclePositions)
	require.Len(t, positions, 1)
	assert.Equal(t, "secret", positions[0].SourceAuthentication.Header["X-Api-Key"])

	assert.Empty(t, source.OfFormat(DataSetFormatGTFSTripUpdates))

	other, err := GetDataSource(directory, "other-city")
	require.NoError(t, err)
	assert.Equal(t, ctdf.TransportModeTram, other.Datasets[0].Mode)

	_, err = GetDataSource(directory, "missing")
	assert.Error(t, err)
}

func TestBundledDataSources(t *testing.T) {
	dataSources, err := LoadDataSources("../../../data/datasources")
	require.NoError(t, err)

	for _, source := range dataSources {
		if source.Identifier != "pl-krakow-ztp" {
			continue
		}

		assert.Len(t, source.OfFormat(DataSetFormatGTFSSchedule), 2)
		assert.Len(t, source.OfFormat(DataSetFormatGTFSVehiclePositions), 2)
		assert.Len(t, source.OfFormat(DataSetFormatGTFSTripUpdates), 2)
		return
	}

	t.Fatal("pl-krakow-ztp datasource not found")
}
