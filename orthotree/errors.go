package orthotree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/gridkit/orthotree/nodetable"
)

// Error type tags for the fatal build-time error kinds. Query
// operations never return an error; unknown ids or empty trees yield
// empty results instead.
const (
	ErrTypeMisconfiguredDepth = "orthotree.misconfigured_depth"
	ErrTypeDimTooWide         = "orthotree.dim_too_wide"
	ErrTypeDegenerateWorldBox = "orthotree.degenerate_world_box"
)

func errMisconfiguredDepth(maxDepth, dim int) error {
	return errors.New("max_depth is misconfigured").
		WithType(ErrTypeMisconfiguredDepth).
		WithTag("max_depth", maxDepth).
		WithTag("dim", dim)
}

func errDimTooWide(dim int) error {
	return errors.New("dim exceeds the child-mask bit width").
		WithType(ErrTypeDimTooWide).
		WithTag("dim", dim).
		WithTag("max_dim", nodetable.MaxChildMaskDim)
}

func errDegenerateWorldBox(dim int) error {
	return errors.New("world box has zero extent on some dimension").
		WithType(ErrTypeDegenerateWorldBox).
		WithTag("dim", dim)
}
