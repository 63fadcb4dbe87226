package model

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/store"
)

// deindexer is the deletion behavior shared by every strategy: validate the
// selector, then hand the request to the store adapter.
type deindexer struct {
	store  store.Store
	logger *zap.Logger
}

func (d deindexer) Deindex(ctx context.Context, req DeindexRequest) error {
	deleteReq := store.DeleteRequest{
		IDs:       req.IDs,
		DeleteAll: req.DeleteAll,
		Filter:    req.Filter,
		Namespace: req.Namespace,
	}
	if err := deleteReq.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	if err := d.store.Delete(ctx, deleteReq); err != nil {
		if errors.Is(err, store.ErrInvalidDeleteRequest) || errors.Is(err, store.ErrMissingNamespace) {
			return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		return err
	}

	d.logger.Info("deindexed",
		zap.String("namespace", req.Namespace),
		zap.Int("ids", len(req.IDs)),
		zap.Bool("delete_all", req.DeleteAll),
		zap.Int("filter_keys", len(req.Filter)))
	return nil
}
