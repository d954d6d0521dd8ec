package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/vehiclematch"
)

const (
	DefaultMaxRadiusMeters = 500
	DefaultAlternatives    = 6
)

var ErrInvalidRequest = errors.New("invalid planning request")

type Point struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func NewPoint(lat float64, lng float64) *Point {
	return &Point{Lat: &lat, Lng: &lng}
}

func (p *Point) LatLng() ctdf.LatLng {
	return ctdf.LatLng{Lat: *p.Lat, Lng: *p.Lng}
}

// PlanRequest is the body of a vehicle matched planning request.
// Zero radius and alternatives mean the defaults.
type PlanRequest struct {
	Origin          *Point  `json:"origin" validate:"required"`
	Destination     *Point  `json:"destination" validate:"required"`
	MaxRadiusMeters float64 `json:"maxRadiusMeters" validate:"omitempty,gte=1,lte=5000"`
	Alternatives    int     `json:"alternatives" validate:"omitempty,gte=1,lte=10"`
}

func (r *PlanRequest) applyDefaults() {
	if r.MaxRadiusMeters == 0 {
		r.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if r.Alternatives == 0 {
		r.Alternatives = DefaultAlternatives
	}
}

func validateRequest(validate *validator.Validate, request *PlanRequest) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			fields = append(fields, fmt.Sprintf("%s failed %s", fieldError.Namespace(), fieldError.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequest, err)
}

const (
	RouteTypePublicTransport = "public_transport"
	RouteTypeFallback        = "fallback"
)

type ResponseSummary struct {
	vehiclematch.Summary

	HasPublicTransport bool   `json:"hasPublicTransport"`
	RouteType          string `json:"routeType"`
}

type PlanResponse struct {
	Routes  []vehiclematch.AnnotatedRoute `json:"routes"`
	Summary ResponseSummary               `json:"summary"`
}
