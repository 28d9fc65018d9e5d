package controllers

import (
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/api/validators"
	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/endpolicy"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type relistRequest struct {
	StartingPriceCents *int64 `json:"starting_price_cents,omitempty" validate:"omitempty,min=1"`
	ReservePriceCents  *int64 `json:"reserve_price_cents,omitempty" validate:"omitempty,min=1"`
	DurationDays       int    `json:"duration_days" validate:"min=0,max=30"`
}

// VendorRelistAuction starts a new run for an unsold auction.
func VendorRelistAuction(executor *endpolicy.Executor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "end policy executor unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := endPolicyActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body relistRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := executor.Relist(r.Context(), endpolicy.RelistInput{
			AuctionID:          auctionID,
			Actor:              actor,
			StartingPriceCents: body.StartingPriceCents,
			ReservePriceCents:  body.ReservePriceCents,
			DurationDays:       body.DurationDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, auctions.NewView(*auction))
	}
}

type convertFixedRequest struct {
	PriceCents *int64 `json:"price_cents,omitempty" validate:"omitempty,min=1"`
}

// VendorConvertAuction publishes an unsold auction's item at a fixed price.
func VendorConvertAuction(executor *endpolicy.Executor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "end policy executor unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := endPolicyActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body convertFixedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := executor.ConvertFixed(r.Context(), endpolicy.ConvertInput{
			AuctionID:  auctionID,
			Actor:      actor,
			PriceCents: body.PriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VendorUnlistAuction pulls an unsold auction's item from sale.
func VendorUnlistAuction(executor *endpolicy.Executor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "end policy executor unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := endPolicyActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := executor.Unlist(r.Context(), endpolicy.UnlistInput{
			AuctionID: auctionID,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func endPolicyActor(r *http.Request) (*endpolicy.Actor, error) {
	userID, role, err := requestActor(r)
	if err != nil {
		return nil, err
	}
	return &endpolicy.Actor{UserID: userID, Role: role}, nil
}
