package service

import (
	"context"

	"github.com/NomadCrew/tripsync-backend/services"
)

// Event sources stamped on TRIP_UPDATED metadata. DetachedJobsHandler keys
// off SourceTripCreate and SourceTripEdit.
const (
	SourceTripCreate   = "trip.create"
	SourceTripEdit     = "trip.edit"
	SourceTripClaim    = "trip.claim"
	SourcePayment      = "trip.payment"
	SourceItinerary    = "trip.itinerary"
	SourceActivityEdit = "trip.activity"
	SourceGroupImage   = "trip.image"
)

// JobSubmitter is the slice of services.WorkerPool the detached jobs need.
type JobSubmitter interface {
	Submit(job services.Job) bool
}

// Emailer sends share-link emails.
type Emailer interface {
	SendShareLink(ctx context.Context, msg services.ShareEmail) error
}

var (
	_ JobSubmitter = (*services.WorkerPool)(nil)
	_ Emailer      = (*services.EmailService)(nil)
)
