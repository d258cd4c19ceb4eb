package server

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

// ResourceGroup closes registered resources in reverse order of
// registration.
type ResourceGroup struct {
	closers []io.Closer
	log     *zap.Logger
}

func NewResourceGroup(log *zap.Logger) *ResourceGroup {
	return &ResourceGroup{
		closers: []io.Closer{},
		log:     log,
	}
}

func (rg *ResourceGroup) Register(c io.Closer) {
	rg.closers = append(rg.closers, c)
}

// CloseAll closes every resource even when some fail and returns the
// joined errors. The group is empty afterwards.
func (rg *ResourceGroup) CloseAll() error {
	var errs []error
	for i := len(rg.closers) - 1; i >= 0; i-- {
		if err := rg.closers[i].Close(); err != nil {
			rg.log.Error("Resource close failed",
				zap.Int("resource_index", i),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	rg.closers = nil

	return errors.Join(errs...)
}
