package handlers

import (
	"context"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/normalize"
)

// Submitter runs one preview exchange with the engine. *bridge.Bridge
// implements it.
type Submitter interface {
	Submit(ctx context.Context, req normalize.Request) (*bridge.Result, error)
}
