package observers

import (
	"github.com/shopmindai/profitshare/internal/model"
)

// EventObserver receives every signed upstream request.
type EventObserver interface {
	OnSignedRequest(event model.SignedRequestEvent)
}
