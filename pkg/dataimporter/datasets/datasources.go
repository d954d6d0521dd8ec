package datasets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type DataSource struct {
	Identifier string    `yaml:"identifier"`
	Region     string    `yaml:"region"`
	Provider   Provider  `yaml:"provider"`
	Datasets   []DataSet `yaml:"datasets"`
}

// OfFormat returns the datasets of one format in the order they were declared
func (d *DataSource) OfFormat(format DataSetFormat) []DataSet {
	var matching []DataSet
	for _, dataset := range d.Datasets {
		if dataset.Format == format {
			matching = append(matching, dataset)
		}
	}

	return matching
}

// LoadDataSources walks a directory of yaml files, each holding one or more datasource documents
func LoadDataSources(directory string) ([]DataSource, error) {
	var dataSources []DataSource

	err := filepath.Walk(directory,
		func(path string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if fileInfo.IsDir() || filepath.Ext(path) != ".yaml" {
				return nil
			}

			log.Debug().Str("path", path).Msg("Loading datasource file")

			sourceYaml, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			decoder := yaml.NewDecoder(bytes.NewReader(sourceYaml))

			for {
				var dataSource DataSource
				err := decoder.Decode(&dataSource)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}

				for i := range dataSource.Datasets {
					dataset := &dataSource.Datasets[i]
					dataset.Identifier = fmt.Sprintf("%s-%s", dataSource.Identifier, dataset.Identifier)
					dataset.DataSourceRef = dataSource.Identifier
					dataset.Provider = dataSource.Provider
				}

				dataSources = append(dataSources, dataSource)
			}

			return nil
		})
	if err != nil {
		return nil, err
	}

	return dataSources, nil
}

func GetDataSource(directory string, identifier string) (DataSource, error) {
	dataSources, err := LoadDataSources(directory)
	if err != nil {
		return DataSource{}, err
	}

	for _, dataSource := range dataSources {
		if dataSource.Identifier == identifier {
			return dataSource, nil
		}
	}

	return DataSource{}, fmt.Errorf("datasource %s could not be found", identifier)
}
