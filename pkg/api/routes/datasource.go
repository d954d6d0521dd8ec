package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
)

func DatasourcesRouter(router fiber.Router, dataSources []datasets.DataSource) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(dataSources)
	})
	router.Get("/provider/:identifier", func(c *fiber.Ctx) error {
		return getProvider(c, dataSources)
	})
	router.Get("/dataset/:identifier", func(c *fiber.Ctx) error {
		return getDataset(c, dataSources)
	})
}

func getProvider(c *fiber.Ctx, dataSources []datasets.DataSource) error {
	identifier := c.Params("identifier")

	for _, dataSource := range dataSources {
		if dataSource.Identifier == identifier {
			return c.JSON(dataSource)
		}
	}

	return errorResponse(c, fiber.StatusNotFound, errors.New("Could not find datasource"))
}

func getDataset(c *fiber.Ctx, dataSources []datasets.DataSource) error {
	identifier := c.Params("identifier")

	for _, dataSource := range dataSources {
		for _, dataset := range dataSource.Datasets {
			if dataset.Identifier == identifier {
				return c.JSON(dataset)
			}
		}
	}

	return errorResponse(c, fiber.StatusNotFound, errors.New("Could not find dataset"))
}
