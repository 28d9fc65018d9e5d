package controllers

import (
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/internal/earnings"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

// VendorEarnings returns the authenticated vendor's earning ledger.
func VendorEarnings(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		vendorID, err := requestVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := queryPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListVendorEarnings(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
