package handlers

import (
	"net/http"
	"strconv"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/geo"
)

// Request fields arrive as loosely-typed form values; these helpers parse
// them and turn anything malformed into a validation error naming the
// field.

func formFloat(r *http.Request, field string) (float64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, apperror.ValidationFailed(field, field+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be a number")
	}
	return v, nil
}

func formFloatOr(r *http.Request, field string, fallback float64) (float64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be a number")
	}
	return v, nil
}

func formUint(r *http.Request, field string) (uint, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, apperror.ValidationFailed(field, field+" is required")
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be a positive integer")
	}
	return uint(v), nil
}

func formIntOr(r *http.Request, field string, fallback int) (int, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be an integer")
	}
	return v, nil
}

// formBoolOpt returns nil when the field is absent, so callers can tell
// "no filter" from an explicit true/false.
func formBoolOpt(r *http.Request, field string) (*bool, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(field, field+" must be true or false")
	}
	return &v, nil
}

func formPoint(r *http.Request) (geo.Point, error) {
	lat, err := formFloat(r, "latitude")
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := formFloat(r, "longitude")
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lng: lng, Lat: lat}, nil
}
