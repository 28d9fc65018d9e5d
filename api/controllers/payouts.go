package controllers

import (
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/api/validators"
	"github.com/bindery-hq/bindery-backend/internal/payouts"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type requestPayoutBody struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Method      string `json:"method" validate:"required,oneof=stripe paypal"`
}

// VendorRequestPayout withdraws available balance to the vendor's payout destination.
func VendorRequestPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		vendorID, err := requestVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body requestPayoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.ProcessWithdrawal(r.Context(), payouts.WithdrawInput{
			VendorID:    vendorID,
			ActorUserID: userID,
			ActorRole:   role,
			AmountCents: body.AmountCents,
			Method:      enums.PayoutMethod(body.Method),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payouts.NewPayoutView(*payout))
	}
}

// VendorPayouts returns the authenticated vendor's payout history.
func VendorPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
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

		list, err := svc.ListVendorPayouts(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
