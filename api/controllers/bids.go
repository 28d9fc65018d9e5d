package controllers

import (
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/api/validators"
	"github.com/bindery-hq/bindery-backend/internal/bids"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type placeBidRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,min=1"`
}

// PlaceBid records a buyer's bid on an active auction.
func PlaceBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, _, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeBidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.PlaceBid(r.Context(), bids.PlaceBidInput{
			AuctionID:   auctionID,
			UserID:      userID,
			AmountCents: body.AmountCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bids.NewBidView(*bid))
	}
}

// ListBids returns the bid history for an auction, newest first.
func ListBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := queryPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBids(r.Context(), auctionID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
