package controllers

import (
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/api/validators"
	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

// AuctionDetail returns the public state of one auction.
func AuctionDetail(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.Get(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auctions.NewView(*auction))
	}
}

type updateEndPolicyRequest struct {
	OnNoSale           string `json:"on_no_sale" validate:"required"`
	RelistDelayHours   int    `json:"relist_delay_hours" validate:"min=0"`
	RelistMaxCount     int    `json:"relist_max_count" validate:"min=0"`
	ConvertPriceSource string `json:"convert_price_source" validate:"required"`
	ConvertMarkupBps   int    `json:"convert_markup_bps" validate:"min=0,max=10000"`
}

// VendorUpdateEndPolicy reconfigures what happens when an auction ends unsold.
func VendorUpdateEndPolicy(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEndPolicyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.UpdateEndPolicy(r.Context(), auctions.UpdateEndPolicyInput{
			AuctionID:          auctionID,
			ActorUserID:        userID,
			ActorRole:          role,
			OnNoSale:           enums.NoSaleAction(body.OnNoSale),
			RelistDelayHours:   body.RelistDelayHours,
			RelistMaxCount:     body.RelistMaxCount,
			ConvertPriceSource: enums.ConvertPriceSource(body.ConvertPriceSource),
			ConvertMarkupBps:   body.ConvertMarkupBps,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auctions.NewView(*auction))
	}
}
