package resolve

import (
	"errors"

	"github.com/arloliu/xmlres/internal/policy"
	"github.com/arloliu/xmlres/internal/transport"
	"github.com/arloliu/xmlres/internal/types"
)

// reportDenied maps the Denied terminal to a PolicyError.
func (r *Resolver) reportDenied(ref types.Reference, d policy.Decision) error {
	err := &types.PolicyError{URI: ref.URI, Kind: ref.Kind, Reason: d.Reason}

	r.logger.Warn().
		Str("uri", ref.URI).
		Stringer("kind", ref.Kind).
		Stringer("reason", d.Reason).
		Int64("offset", ref.Offset).
		Msg("resolution denied")

	return err
}

// reportTransportFailed maps the TransportFailed terminal to a
// TransportError, preserving an already-typed error from the transport.
func (r *Resolver) reportTransportFailed(ref types.Reference, err error) error {
	var terr *types.TransportError
	if !errors.As(err, &terr) {
		terr = &types.TransportError{
			URI:      ref.URI,
			Category: types.CategoryProtocol,
			Err:      err,
		}
	}

	r.logger.Warn().
		Str("uri", ref.URI).
		Stringer("kind", ref.Kind).
		Stringer("category", terr.Category).
		Int64("offset", ref.Offset).
		Err(err).
		Msg("transport failed")

	return terr
}

// reportNormalizationFailed maps the NormalizationFailed terminal to the
// typed error produced by the normalizer (StatusError or ContentError).
func (r *Resolver) reportNormalizationFailed(ref types.Reference, resp *transport.Response, err error) error {
	r.logger.Warn().
		Str("uri", ref.URI).
		Stringer("kind", ref.Kind).
		Int("status", resp.StatusCode).
		Int64("offset", ref.Offset).
		Err(err).
		Msg("normalization failed")

	return err
}
