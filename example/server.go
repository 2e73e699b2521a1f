//go:build cfgpanic

package main

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// NewServer serves the jobs over HTTP.
//
//cfgpanic:gate http
func NewServer(jobs []Job) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.GET("/jobs", func(c echo.Context) error {
		return c.JSON(http.StatusOK, jobs)
	})
	e.GET("/jobs/:id", func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		for _, job := range jobs {
			if job.ID == id {
				return c.JSON(http.StatusOK, job)
			}
		}
		return echo.NewHTTPError(http.StatusNotFound)
	})
	return e
}
