package controllers

import (
	"net/http"

	"github.com/aquaticpose/aquaticpose-backend/api/responses"
	"github.com/aquaticpose/aquaticpose-backend/internal/locations"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
)

// LocationProvinces lists every province.
func LocationProvinces(client *locations.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provinces, err := client.ListProvinces(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, provinces)
	}
}

// LocationProvinceDetail returns one province with its districts.
func LocationProvinceDetail(client *locations.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := pathInt(r, "provinceCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		province, err := client.GetProvince(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, province)
	}
}

// LocationDistrictDetail returns one district with its wards.
func LocationDistrictDetail(client *locations.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := pathInt(r, "districtCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		district, err := client.GetDistrict(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, district)
	}
}
