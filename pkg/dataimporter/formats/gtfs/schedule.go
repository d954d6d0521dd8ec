package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
	"golang.org/x/net/html/charset"
)

var ErrMissingFile = errors.New("gtfs archive is missing a required file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Schedule struct {
	Routes []Route
	Trips  []Trip
}

// ParseSchedule reads routes.txt and trips.txt out of a UTF-8 GTFS zip archive
func ParseSchedule(body []byte) (*Schedule, error) {
	return ParseScheduleWithCharset(body, "")
}

// ParseScheduleWithCharset is ParseSchedule for publishers that still export in a legacy
// encoding such as windows-1250. An empty label means UTF-8.
func ParseScheduleWithCharset(body []byte, charsetLabel string) (*Schedule, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open gtfs archive: %w", err)
	}

	schedule := &Schedule{}

	fileMap := map[string]interface{}{
		"routes.txt": &schedule.Routes,
		"trips.txt":  &schedule.Trips,
	}
	found := map[string]bool{}

	for _, zipFile := range archive.File {
		// Some publishers nest the files inside a folder
		fileName := path.Base(zipFile.Name)

		destination, exists := fileMap[fileName]
		if !exists || found[fileName] {
			continue
		}

		log.Debug().Str("file", zipFile.Name).Msg("Loading file")

		if err := unmarshalZipFile(zipFile, charsetLabel, destination); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fileName, err)
		}
		found[fileName] = true
	}

	for fileName := range fileMap {
		if !found[fileName] {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, fileName)
		}
	}

	return schedule, nil
}

func unmarshalZipFile(zipFile *zip.File, charsetLabel string, destination interface{}) error {
	file, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	if charsetLabel != "" {
		reader, err = charset.NewReaderLabel(charsetLabel, file)
		if err != nil {
			return err
		}
	}

	contents, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	contents = bytes.TrimPrefix(contents, utf8BOM)

	// Allow us to ignore those naughty records that have missing columns
	csvReader := csv.NewReader(bytes.NewReader(contents))
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	return gocsv.UnmarshalCSV(csvReader, destination)
}

// ToCTDF converts the archive into route and trip records. Trips inherit the mode of their route.
func (s *Schedule) ToCTDF() ([]ctdf.Route, []ctdf.Trip) {
	routes := make([]ctdf.Route, 0, len(s.Routes))
	routeModes := map[string]ctdf.TransportMode{}

	for _, gtfsRoute := range s.Routes {
		route := gtfsRoute.ToCTDF()
		routes = append(routes, route)

		if _, exists := routeModes[route.RouteID]; !exists {
			routeModes[route.RouteID] = route.TransportMode
		}
	}

	trips := make([]ctdf.Trip, 0, len(s.Trips))
	for _, gtfsTrip := range s.Trips {
		mode, exists := routeModes[gtfsTrip.RouteID]
		if !exists {
			mode = ctdf.TransportModeBus
		}

		trips = append(trips, gtfsTrip.ToCTDF(mode))
	}

	return routes, trips
}
